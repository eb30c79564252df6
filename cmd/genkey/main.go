// Command genkey prints a random secret suitable for JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
)

func main() {
	size := flag.Int("bytes", 48, "Number of random bytes")
	flag.Parse()

	if *size < 32 {
		fmt.Fprintln(os.Stderr, "Refusing to generate a secret shorter than 32 bytes")
		os.Exit(1)
	}

	secret, err := crypto.NewSigningSecret(*size)
	if err != nil {
		panic(err)
	}
	fmt.Printf("JWT_SECRET=%s\n", secret)
}

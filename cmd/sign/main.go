// Command sign mints an access token for local testing of authenticated routes.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
)

func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "JWT signing secret (defaults to $JWT_SECRET)")
	userID := flag.String("user", "", "User UUID")
	email := flag.String("email", "", "User email")
	role := flag.String("role", string(models.RoleCandidate), "ADMIN, ENTERPRISE or CANDIDATE")
	ttl := flag.Duration("ttl", time.Hour, "Token lifetime")
	flag.Parse()

	if *secret == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -user <uuid> [-secret <secret>] [-email <email>] [-role <role>] [-ttl 1h]")
		os.Exit(1)
	}

	id, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user id: %v\n", err)
		os.Exit(1)
	}
	r := models.Role(*role)
	if !r.Valid() {
		fmt.Fprintf(os.Stderr, "Invalid role: %s\n", *role)
		os.Exit(1)
	}

	token, err := auth.NewTokenService(*secret, *ttl).GenerateFor(id, *email, r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "curl -H 'Authorization: Bearer %s' http://localhost:8080/me\n", token)
}

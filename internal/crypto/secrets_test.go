package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewVerificationCode(t *testing.T) {
	req := require.New(t)
	pattern := regexp.MustCompile(`^[1-9][0-9]{5}$`)

	for i := 0; i < 50; i++ {
		code, err := NewVerificationCode()
		req.NoError(err)
		req.Regexp(pattern, code)
	}
}

func TestNewResetToken(t *testing.T) {
	req := require.New(t)

	a, err := NewResetToken()
	req.NoError(err)
	b, err := NewResetToken()
	req.NoError(err)

	req.Len(a, 64)
	_, err = hex.DecodeString(a)
	req.NoError(err)
	req.NotEqual(a, b)
}

func TestNewSigningSecret(t *testing.T) {
	req := require.New(t)

	secret, err := NewSigningSecret(48)
	req.NoError(err)

	raw, err := base64.StdEncoding.DecodeString(secret)
	req.NoError(err)
	req.Len(raw, 48)
}

func TestNewUUIDv7_IsTimeOrdered(t *testing.T) {
	req := require.New(t)

	first := NewUUIDv7()
	second := NewUUIDv7()

	req.Equal(byte(7), byte(first.Version()))
	req.Less(first.String(), second.String())
}

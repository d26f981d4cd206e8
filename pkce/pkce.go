// Package pkce generates RFC 7636 code verifiers and S256 challenges.
package pkce

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"golang.org/x/oauth2"
)

const (
	MinVerifierLength     = 43
	MaxVerifierLength     = 128
	DefaultVerifierLength = MaxVerifierLength
)

// GenerateVerifier returns length hex characters read from a CSPRNG.
// Hex is a subset of the RFC 7636 unreserved alphabet.
func GenerateVerifier(length int) (string, error) {
	if length < MinVerifierLength || length > MaxVerifierLength {
		return "", fmt.Errorf("[pkce GenerateVerifier] length %d outside %d..%d: %w",
			length, MinVerifierLength, MaxVerifierLength, errors.ErrInvalidPKCE)
	}
	b := make([]byte, (length+1)/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[pkce GenerateVerifier] read random: %w", err)
	}
	return hex.EncodeToString(b)[:length], nil
}

// DeriveChallenge is the S256 transform: base64url(sha256(verifier)) without padding.
func DeriveChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// Verify reports whether challenge was derived from verifier.
func Verify(verifier, challenge string) bool {
	return subtle.ConstantTimeCompare([]byte(DeriveChallenge(verifier)), []byte(challenge)) == 1
}

// ValidVerifier checks length and alphabet of a caller supplied verifier.
func ValidVerifier(verifier string) bool {
	if len(verifier) < MinVerifierLength || len(verifier) > MaxVerifierLength {
		return false
	}
	for _, c := range verifier {
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_' || c == '~':
		default:
			return false
		}
	}
	return true
}

// Pair is a verifier and the challenge derived from it.
type Pair struct {
	Verifier  string
	Challenge string
}

// NewPair generates a verifier of the given length and its challenge.
func NewPair(length int) (Pair, error) {
	v, err := GenerateVerifier(length)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Verifier: v, Challenge: DeriveChallenge(v)}, nil
}

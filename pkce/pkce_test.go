package pkce_test

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/pkce"
	"github.com/stretchr/testify/require"
)

const (
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func independentChallenge(v string) string {
	sum := sha256.Sum256([]byte(v))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func TestGenerateVerifier(t *testing.T) {
	t.Run("produces the requested number of hex characters", func(t *testing.T) {
		for _, n := range []int{43, 64, 127, 128} {
			v, err := pkce.GenerateVerifier(n)
			require.NoError(t, err)
			require.Len(t, v, n)
			require.True(t, pkce.ValidVerifier(v))
			require.Empty(t, strings.Trim(v, "0123456789abcdef"))
		}
	})

	t.Run("verifiers are unique", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 100; i++ {
			v, err := pkce.GenerateVerifier(pkce.DefaultVerifierLength)
			require.NoError(t, err)
			require.False(t, seen[v])
			seen[v] = true
		}
	})

	t.Run("rejects lengths outside RFC 7636 bounds", func(t *testing.T) {
		for _, n := range []int{0, 42, 129} {
			_, err := pkce.GenerateVerifier(n)
			require.ErrorIs(t, err, errors.ErrInvalidPKCE)
		}
	})
}

func TestDeriveChallenge(t *testing.T) {
	t.Run("matches the RFC 7636 appendix B vector", func(t *testing.T) {
		require.Equal(t, rfcChallenge, pkce.DeriveChallenge(rfcVerifier))
	})

	t.Run("is deterministic, padding free and url safe", func(t *testing.T) {
		v, err := pkce.GenerateVerifier(128)
		require.NoError(t, err)
		c := pkce.DeriveChallenge(v)
		require.Equal(t, c, pkce.DeriveChallenge(v))
		require.Len(t, c, 43)
		require.NotContains(t, c, "=")
		require.NotContains(t, c, "+")
		require.NotContains(t, c, "/")
	})

	t.Run("round trips with an independent implementation", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			p, err := pkce.NewPair(pkce.DefaultVerifierLength)
			require.NoError(t, err)
			require.Equal(t, independentChallenge(p.Verifier), p.Challenge)
		}
	})
}

func TestVerify(t *testing.T) {
	require.True(t, pkce.Verify(rfcVerifier, rfcChallenge))
	require.False(t, pkce.Verify(rfcVerifier, independentChallenge("something else")))
	require.False(t, pkce.Verify(rfcVerifier, ""))
}

func TestValidVerifier(t *testing.T) {
	require.True(t, pkce.ValidVerifier(rfcVerifier))
	require.True(t, pkce.ValidVerifier(strings.Repeat("a~._-", 10)))
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 42)))
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 129)))
	require.False(t, pkce.ValidVerifier(strings.Repeat("a", 42)+"+"))
}

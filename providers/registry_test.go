package providers_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
	"github.com/jrsteele09/go-oauth-broker/providers"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r := providers.Default()

	t.Run("known providers", func(t *testing.T) {
		tests := []struct {
			name string
			pkce bool
		}{
			{"gmail", true},
			{"calendar", true},
			{"docs", true},
			{"sheets", true},
			{"linear", false},
			{"slack", true},
			{"x", true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p, err := r.Get(tt.name)
				require.NoError(t, err)
				require.Equal(t, tt.name, p.Name)
				require.Equal(t, tt.pkce, p.PKCERequired)
				require.True(t, strings.HasPrefix(p.AuthorizationEndpoint, "https://"))
				require.True(t, strings.HasPrefix(p.TokenEndpoint, "https://"))
				require.NotEmpty(t, p.Scope)
			})
		}
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		p, err := r.Get(" Gmail ")
		require.NoError(t, err)
		require.Equal(t, "gmail", p.Name)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := r.Get("myspace")
		require.ErrorIs(t, err, errors.ErrUnknownProvider)
	})

	t.Run("list is sorted", func(t *testing.T) {
		list := r.List()
		require.Len(t, list, len(providers.DefaultProfiles()))
		for i := 1; i < len(list); i++ {
			require.Less(t, list[i-1].Name, list[i].Name)
		}
	})
}

func TestNewRegistry(t *testing.T) {
	t.Run("rejects duplicates", func(t *testing.T) {
		p := providers.Profile{Name: "a", AuthorizationEndpoint: "https://a/auth", TokenEndpoint: "https://a/token"}
		_, err := providers.NewRegistry(p, p)
		require.Error(t, err)
	})

	t.Run("rejects profiles without endpoints", func(t *testing.T) {
		_, err := providers.NewRegistry(providers.Profile{Name: "a"})
		require.Error(t, err)
	})
}

func TestRegistryWith(t *testing.T) {
	base := providers.Default()

	r, err := base.With(
		providers.Override{Name: "linear", PKCERequired: utils.Ptr(true)},
		providers.Override{
			Name:                  "gitlab",
			AuthorizationEndpoint: "https://gitlab.com/oauth/authorize",
			TokenEndpoint:         "https://gitlab.com/oauth/token",
			Scope:                 "read_api",
		},
	)
	require.NoError(t, err)

	linear, err := r.Get("linear")
	require.NoError(t, err)
	require.True(t, linear.PKCERequired)
	require.Equal(t, "https://linear.app/oauth/authorize", linear.AuthorizationEndpoint, "unset fields keep the built-in value")

	_, err = r.Get("gitlab")
	require.NoError(t, err)

	original, err := base.Get("linear")
	require.NoError(t, err)
	require.False(t, original.PKCERequired, "the base registry is unchanged")
}

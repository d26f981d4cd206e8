package providers

import (
	"context"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog/log"
)

// Discover refreshes the endpoints of every profile that names an issuer from
// the issuer's OpenID configuration. A provider whose discovery fails keeps its
// static endpoints.
func Discover(ctx context.Context, r *Registry, client *http.Client) (*Registry, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	endpoints := map[string]Override{}
	failed := map[string]bool{}
	var overrides []Override
	for _, p := range r.List() {
		if p.Issuer == "" || failed[p.Issuer] {
			continue
		}
		o, ok := endpoints[p.Issuer]
		if !ok {
			provider, err := oidc.NewProvider(ctx, p.Issuer)
			if err != nil {
				log.Warn().Err(err).Str("provider", p.Name).Str("issuer", p.Issuer).Msg("OIDC discovery failed, keeping static endpoints")
				failed[p.Issuer] = true
				continue
			}
			ep := provider.Endpoint()
			o = Override{AuthorizationEndpoint: ep.AuthURL, TokenEndpoint: ep.TokenURL}
			endpoints[p.Issuer] = o
		}
		o.Name = p.Name
		overrides = append(overrides, o)
	}
	return r.With(overrides...)
}

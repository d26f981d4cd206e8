package config

import "time"

type OAuthConfig interface {
	GetFlowTTL() time.Duration
	GetVerifierLength() int
	GetExchangeTimeout() time.Duration
	GetProvidersFile() string
	GetOIDCDiscovery() bool
	GetAllowEndpointOverride() bool
	GetInitiateRatePerMinute() int
}

type OAuth struct {
	// FlowTTL bounds how long a login may stay unclaimed at the provider.
	FlowTTL               time.Duration `env:"FLOW_TTL" envDefault:"10m"`
	VerifierLength        int           `env:"PKCE_VERIFIER_LENGTH" envDefault:"128"`
	ExchangeTimeout       time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"15s"`
	ProvidersFile         string        `env:"PROVIDERS_FILE"`
	OIDCDiscovery         bool          `env:"OIDC_DISCOVERY" envDefault:"false"`
	AllowEndpointOverride bool          `env:"ALLOW_ENDPOINT_OVERRIDE" envDefault:"false"`
	InitiateRatePerMinute int           `env:"INITIATE_RATE_PER_MINUTE" envDefault:"20"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetFlowTTL() time.Duration {
	return o.FlowTTL
}

func (o OAuth) GetVerifierLength() int {
	return o.VerifierLength
}

func (o OAuth) GetExchangeTimeout() time.Duration {
	return o.ExchangeTimeout
}

func (o OAuth) GetProvidersFile() string {
	return o.ProvidersFile
}

func (o OAuth) GetOIDCDiscovery() bool {
	return o.OIDCDiscovery
}

// GetAllowEndpointOverride reports whether callers may replace the registry's
// authorization and token endpoints. Off by default: the token endpoint
// receives the end user's client secret.
func (o OAuth) GetAllowEndpointOverride() bool {
	return o.AllowEndpointOverride
}

// GetInitiateRatePerMinute is the per-client login initiation budget. Zero disables limiting.
func (o OAuth) GetInitiateRatePerMinute() int {
	return o.InitiateRatePerMinute
}

package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	EnvDev  = "DEV"
	EnvProd = "PROD"

	minCookieSecretLength = 32
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SinkConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetBaseURL() string
	GetLandingURL() string
	GetCallbackURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Sink
	Security
	Store
}

// New loads the configuration from the process environment.
func New() (Config, error) {
	return load(env.Options{})
}

// NewFromMap loads the configuration from vars instead of the process
// environment. Unset variables take their defaults.
func NewFromMap(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *mainConfig) validate() error {
	c.EnvVars.Env = strings.ToUpper(strings.TrimSpace(c.EnvVars.Env))

	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if strings.TrimSpace(c.Store.SQLitePath) == "" {
			return fmt.Errorf("[config validate] SQLITE_PATH is required for the sqlite store")
		}
	case StoreDriverValkey:
		if strings.TrimSpace(c.Store.ValkeyAddr) == "" {
			return fmt.Errorf("[config validate] VALKEY_ADDR is required for the valkey store")
		}
	default:
		return fmt.Errorf("[config validate] unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.Security.CookieSecret == "" {
		if c.EnvVars.Env != EnvDev {
			return fmt.Errorf("[config validate] COOKIE_SECRET is required outside %s", EnvDev)
		}
		secret := make([]byte, minCookieSecretLength)
		if _, err := rand.Read(secret); err != nil {
			return fmt.Errorf("[config validate] generate cookie secret: %w", err)
		}
		c.Security.CookieSecret = hex.EncodeToString(secret)
	}
	if len(c.Security.CookieSecret) < minCookieSecretLength {
		return fmt.Errorf("[config validate] COOKIE_SECRET must be at least %d characters", minCookieSecretLength)
	}

	if c.OAuth.VerifierLength < 43 || c.OAuth.VerifierLength > 128 {
		return fmt.Errorf("[config validate] PKCE_VERIFIER_LENGTH must be between 43 and 128")
	}
	if c.OAuth.FlowTTL <= 0 {
		return fmt.Errorf("[config validate] FLOW_TTL must be positive")
	}
	return nil
}

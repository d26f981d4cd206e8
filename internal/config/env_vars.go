package config

import (
	"fmt"
	"strings"
)

type EnvVars struct {
	Port       string `env:"PORT" envDefault:"8080"`
	AppName    string `env:"APP_NAME" envDefault:"OAuth Broker"`
	Env        string `env:"ENV" envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LandingURL string `env:"LANDING_URL"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return EnvDev
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetBaseURL returns the public base URL of the broker (e.g., "https://app.example.com").
// The default OAuth callback URL is derived from it.
func (e EnvVars) GetBaseURL() string {
	return strings.TrimRight(e.BaseURL, "/")
}

// GetLandingURL is where the browser is sent after a successful login.
func (e EnvVars) GetLandingURL() string {
	if e.LandingURL == "" {
		return e.GetBaseURL() + "/"
	}
	return e.LandingURL
}

func (e EnvVars) GetCallbackURL() string {
	return e.GetBaseURL() + "/api/oauth2/callback"
}

package config

import (
	"strings"
	"time"
)

type SinkConfig interface {
	GetBackendURL() string
	GetSinkTimeout() time.Duration
	GetSinkMaxAttempts() uint
}

// Sink configures delivery to the backend token store.
type Sink struct {
	BackendURL  string        `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	Timeout     time.Duration `env:"SINK_TIMEOUT" envDefault:"10s"`
	MaxAttempts uint          `env:"SINK_MAX_ATTEMPTS" envDefault:"4"`
}

var _ SinkConfig = Sink{}

func (s Sink) GetBackendURL() string {
	return strings.TrimRight(s.BackendURL, "/")
}

func (s Sink) GetSinkTimeout() time.Duration {
	return s.Timeout
}

func (s Sink) GetSinkMaxAttempts() uint {
	if s.MaxAttempts == 0 {
		return 1
	}
	return s.MaxAttempts
}

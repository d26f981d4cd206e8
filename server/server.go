package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-oauth-broker/broker"
	"github.com/jrsteele09/go-oauth-broker/internal/config"
	"github.com/jrsteele09/go-oauth-broker/tokensink"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	broker  *broker.Service
	status  tokensink.StatusChecker
	cookies *flowCookies
	limiter *clientLimiter
	metrics *prometheus.Registry
	nowTime func() time.Time
}

type Option func(*Server)

// WithMetricsRegistry exposes an existing registry on /metrics instead of a private one.
func WithMetricsRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = registry
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(c config.Config, svc *broker.Service, status tokensink.StatusChecker, options ...Option) (*Server, error) {
	if c == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if svc == nil {
		return nil, errors.New("[Server New] broker service is required")
	}
	if status == nil {
		return nil, errors.New("[Server New] status checker is required")
	}

	s := &Server{
		env:     c.GetEnv(),
		mux:     http.NewServeMux(),
		config:  c,
		broker:  svc,
		status:  status,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = prometheus.NewRegistry()
	}
	if err := registerCollectors(s.metrics, broker.MetricsCollectors(), MetricsCollectors()); err != nil {
		return nil, fmt.Errorf("[Server New] register metrics: %w", err)
	}

	s.cookies = newFlowCookies(c.GetCookieSecret(), svc.FlowTTL(), c.GetSecureCookies(), s.nowTime)
	s.limiter = newClientLimiter(c.GetInitiateRatePerMinute(), s.nowTime)

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDev {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

func registerCollectors(registry *prometheus.Registry, groups ...[]prometheus.Collector) error {
	for _, group := range groups {
		for _, collector := range group {
			if err := registry.Register(collector); err != nil {
				var already prometheus.AlreadyRegisteredError
				if errors.As(err, &already) {
					continue
				}
				return err
			}
		}
	}
	return nil
}

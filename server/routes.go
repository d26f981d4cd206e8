package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// OAuth2 flow (browser redirects)
	s.RegisterRouteHandler("GET "+RouteOAuth2Login, ChainMiddleware(s.LoginHandler(), s.BrowserMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOAuth2Callback, ChainMiddleware(s.CallbackHandler(), s.BrowserMiddleware()...))

	// API routes
	s.RegisterRouteHandler("GET "+RouteIntegrations, ChainMiddleware(s.IntegrationsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteIntegrations, ChainMiddleware(s.IntegrationsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteIntegrationStatus, ChainMiddleware(s.IntegrationStatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteIntegrationStatus, ChainMiddleware(s.IntegrationStatusHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
}

package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 flow routes. Both are browser navigations, not XHR calls.
	RouteOAuth2Login    = "/api/oauth2/login"
	RouteOAuth2Callback = "/api/oauth2/callback"

	// Integration catalogue
	RouteIntegrations      = "/api/integrations"
	RouteIntegrationStatus = "/api/integrations/{name}/status"

	// Operations
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// flowCookiePath scopes the flow binding cookie to the two flow routes.
	flowCookiePath = "/api/oauth2"
)

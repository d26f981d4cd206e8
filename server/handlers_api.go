package server

import (
	"fmt"
	"net/http"
	"strings"

	brokererrors "github.com/jrsteele09/go-oauth-broker/internal/errors"
	"github.com/jrsteele09/go-oauth-broker/internal/utils"
)

type integrationResponse struct {
	Name                  string `json:"name"`
	DisplayName           string `json:"display_name"`
	Scope                 string `json:"scope"`
	PKCERequired          bool   `json:"pkce_required"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

type statusResponse struct {
	IsAuthenticated bool `json:"is_authenticated"`
}

// IntegrationsHandler lists the configured providers.
func (s *Server) IntegrationsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles := s.broker.Providers().List()
		resp := make([]integrationResponse, 0, len(profiles))
		for _, p := range profiles {
			resp = append(resp, integrationResponse{
				Name:                  p.Name,
				DisplayName:           p.DisplayName,
				Scope:                 p.Scope,
				PKCERequired:          p.PKCERequired,
				AuthorizationEndpoint: p.AuthorizationEndpoint,
				TokenEndpoint:         p.TokenEndpoint,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// IntegrationStatusHandler asks the token sink whether a caller has a stored
// token for an integration.
//
//	GET /api/integrations/{name}/status?apiKey=..&tableName=..
func (s *Server) IntegrationStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.broker.Providers().Get(r.PathValue("name"))
		if err != nil {
			writeError(w, r, err)
			return
		}

		q := r.URL.Query()
		apiKey := strings.TrimSpace(utils.FirstNonEmpty(q.Get(paramAPIKey), q.Get(paramControllerAPIKey), q.Get(paramExpandAPIKey)))
		if apiKey == "" {
			writeError(w, r, fmt.Errorf("[Server IntegrationStatusHandler] api key is required: %w", brokererrors.ErrInvalidRequest))
			return
		}
		tableName := utils.FirstNonEmpty(q.Get(paramTableName), profile.Name)

		authenticated, err := s.status.Status(r.Context(), apiKey, tableName)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{IsAuthenticated: authenticated})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

package flowstate

import "time"

// FlowState is the per-login secret bundle carried across the provider redirect.
// It is created once by the initiator and consumed once by the callback.
type FlowState struct {
	State        string `json:"state"`
	Provider     string `json:"provider"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	APIKey       string `json:"api_key"`
	TableName    string `json:"table_name"`
	RedirectURI  string `json:"redirect_uri"`

	// Set only when PKCE is active for the flow.
	CodeVerifier  *string `json:"code_verifier,omitempty"`
	CodeChallenge *string `json:"code_challenge,omitempty"`

	VerifierRequired bool   `json:"verifier_required"`
	ExchangeBase     string `json:"exchange_base"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the flow is past its deadline at now.
// A zero ExpiresAt never expires.
func (f *FlowState) Expired(now time.Time) bool {
	return !f.ExpiresAt.IsZero() && !now.Before(f.ExpiresAt)
}

// Clone returns a deep copy.
func (f *FlowState) Clone() *FlowState {
	if f == nil {
		return nil
	}
	c := *f
	if f.CodeVerifier != nil {
		v := *f.CodeVerifier
		c.CodeVerifier = &v
	}
	if f.CodeChallenge != nil {
		v := *f.CodeChallenge
		c.CodeChallenge = &v
	}
	return &c
}

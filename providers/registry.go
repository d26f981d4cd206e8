package providers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jrsteele09/go-oauth-broker/internal/errors"
)

// Profile describes how to run the authorization code grant against one provider.
type Profile struct {
	Name                  string
	DisplayName           string
	AuthorizationEndpoint string
	TokenEndpoint         string
	// Scope is sent verbatim. Providers disagree on the delimiter (space or comma).
	Scope        string
	PKCERequired bool
	// Issuer enables OIDC discovery of the two endpoints when set.
	Issuer string
}

// Registry is an immutable lookup table of provider profiles keyed by integration name.
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds a registry. Names are case-insensitive and must be unique.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := validateProfile(p); err != nil {
			return nil, err
		}
		key := normalise(p.Name)
		if _, exists := r.profiles[key]; exists {
			return nil, fmt.Errorf("[providers NewRegistry] duplicate provider %q", p.Name)
		}
		p.Name = key
		r.profiles[key] = p
	}
	return r, nil
}

// Get returns the profile for an integration, or ErrUnknownProvider.
func (r *Registry) Get(name string) (Profile, error) {
	p, ok := r.profiles[normalise(name)]
	if !ok {
		return Profile{}, fmt.Errorf("[Registry Get] %q: %w", name, errors.ErrUnknownProvider)
	}
	return p, nil
}

// List returns every profile ordered by name.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// With returns a new registry where each override replaces or extends the
// profile of the same name. Zero-valued override fields keep the existing value.
func (r *Registry) With(overrides ...Override) (*Registry, error) {
	merged := make(map[string]Profile, len(r.profiles))
	for k, v := range r.profiles {
		merged[k] = v
	}
	for _, o := range overrides {
		key := normalise(o.Name)
		merged[key] = o.apply(merged[key])
	}

	profiles := make([]Profile, 0, len(merged))
	for _, p := range merged {
		profiles = append(profiles, p)
	}
	return NewRegistry(profiles...)
}

func validateProfile(p Profile) error {
	if normalise(p.Name) == "" {
		return fmt.Errorf("[providers validateProfile] provider name is required")
	}
	if p.AuthorizationEndpoint == "" || p.TokenEndpoint == "" {
		return fmt.Errorf("[providers validateProfile] provider %q needs an authorization and a token endpoint", p.Name)
	}
	return nil
}

func normalise(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

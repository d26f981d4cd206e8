package providers

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Override is one provider entry from a providers file. Unset fields keep the
// built-in value when the name matches an existing profile.
type Override struct {
	Name                  string `yaml:"name"`
	DisplayName           string `yaml:"display_name"`
	AuthorizationEndpoint string `yaml:"authorization_endpoint"`
	TokenEndpoint         string `yaml:"token_endpoint"`
	Scope                 string `yaml:"scope"`
	PKCERequired          *bool  `yaml:"pkce_required"`
	Issuer                string `yaml:"issuer"`
}

type providersFile struct {
	Providers []Override `yaml:"providers"`
}

func (o Override) apply(p Profile) Profile {
	p.Name = o.Name
	if o.DisplayName != "" {
		p.DisplayName = o.DisplayName
	}
	if o.AuthorizationEndpoint != "" {
		p.AuthorizationEndpoint = o.AuthorizationEndpoint
	}
	if o.TokenEndpoint != "" {
		p.TokenEndpoint = o.TokenEndpoint
	}
	if o.Scope != "" {
		p.Scope = o.Scope
	}
	if o.PKCERequired != nil {
		p.PKCERequired = *o.PKCERequired
	}
	if o.Issuer != "" {
		p.Issuer = o.Issuer
	}
	return p
}

// LoadFile reads provider overrides from a YAML file:
//
//	providers:
//	  - name: gitlab
//	    authorization_endpoint: https://gitlab.com/oauth/authorize
//	    token_endpoint: https://gitlab.com/oauth/token
//	    scope: read_api
//	    pkce_required: true
func LoadFile(path string) ([]Override, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[providers LoadFile] open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses provider overrides from YAML.
func Decode(r io.Reader) ([]Override, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("[providers Decode] read: %w", err)
	}
	var pf providersFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil && err != io.EOF {
		return nil, fmt.Errorf("[providers Decode] yaml: %w", err)
	}
	for i, o := range pf.Providers {
		if normalise(o.Name) == "" {
			return nil, fmt.Errorf("[providers Decode] entry %d has no name", i)
		}
	}
	return pf.Providers, nil
}

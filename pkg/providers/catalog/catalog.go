// Package catalog holds the per-provider OAuth endpoints and scopes. The
// embedded defaults cover the built-in providers; deployments can point
// PROVIDER_CATALOG_FILE at a yaml file to override endpoints, which is how
// tests aim adapters at local servers.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/publora/publora/pkg/domain"

	"gopkg.in/yaml.v3"
)

//go:embed providers.yaml
var defaultCatalogYAML []byte

type Endpoints struct {
	AuthURL    string   `yaml:"auth_url"`
	TokenURL   string   `yaml:"token_url"`
	ProfileURL string   `yaml:"profile_url"`
	PublishURL string   `yaml:"publish_url"`
	Scopes     []string `yaml:"scopes"`
}

type Catalog struct {
	Providers map[domain.ProviderType]Endpoints `yaml:"providers"`
}

// Load parses the embedded default catalog, overlaid with the file at path
// when path is non-empty.
func Load(path string) (*Catalog, error) {
	c := &Catalog{}

	if err := yaml.Unmarshal(defaultCatalogYAML, c); err != nil {
		return nil, fmt.Errorf("parse embedded provider catalog: %w", err)
	}

	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider catalog %s: %w", path, err)
	}

	override := &Catalog{}
	if err := yaml.Unmarshal(raw, override); err != nil {
		return nil, fmt.Errorf("parse provider catalog %s: %w", path, err)
	}

	for provider, endpoints := range override.Providers {
		c.Providers[provider] = endpoints
	}

	return c, nil
}

// Endpoints returns the endpoints for a provider, or false when the catalog
// does not know it.
func (c *Catalog) Endpoints(provider domain.ProviderType) (Endpoints, bool) {
	endpoints, ok := c.Providers[provider]
	return endpoints, ok
}

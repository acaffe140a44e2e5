package cli

import (
	"strings"

	"github.com/publora/publora/internal/oauth"
	"github.com/publora/publora/pkg/domain"
	"github.com/publora/publora/pkg/providers/catalog"
	demoprovider "github.com/publora/publora/pkg/providers/demo"
	linkedinprovider "github.com/publora/publora/pkg/providers/linkedin"
	xprovider "github.com/publora/publora/pkg/providers/x"

	"github.com/rs/zerolog/log"
)

type ProviderDeps struct {
	Credentials oauth.ClientCredentials
	RedirectURL string
	Endpoints   catalog.Endpoints
}

type ProviderRegisterParams struct {
	Provider   domain.ProviderType
	NewAdapter func(deps ProviderDeps) domain.ProviderAdapter
}

var providerRegisterParams = []ProviderRegisterParams{
	{
		Provider: domain.ProviderType_X,
		NewAdapter: func(deps ProviderDeps) domain.ProviderAdapter {
			return xprovider.NewXAdapter(xprovider.XAdapterDependencies{
				ClientID:     deps.Credentials.ClientID,
				ClientSecret: deps.Credentials.ClientSecret,
				RedirectURL:  deps.RedirectURL,
				Endpoints:    deps.Endpoints,
			})
		},
	},
	{
		Provider: domain.ProviderType_LinkedIn,
		NewAdapter: func(deps ProviderDeps) domain.ProviderAdapter {
			return linkedinprovider.NewLinkedInAdapter(linkedinprovider.LinkedInAdapterDependencies{
				ClientID:     deps.Credentials.ClientID,
				ClientSecret: deps.Credentials.ClientSecret,
				RedirectURL:  deps.RedirectURL,
				Endpoints:    deps.Endpoints,
			})
		},
	},
	{
		Provider: domain.ProviderType_Demo,
		NewAdapter: func(deps ProviderDeps) domain.ProviderAdapter {
			return demoprovider.NewDemoAdapter()
		},
	},
}

type RegisterProvidersParams struct {
	AdapterSelector domain.AdapterSelector
	Catalog         *catalog.Catalog
	Credentials     map[domain.ProviderType]oauth.ClientCredentials
	AppBaseURL      string
}

func RegisterProviders(p RegisterProvidersParams) {
	appBaseURL := strings.TrimSuffix(p.AppBaseURL, "/")

	for _, params := range providerRegisterParams {
		endpoints, _ := p.Catalog.Endpoints(params.Provider)

		adapter := params.NewAdapter(ProviderDeps{
			Credentials: p.Credentials[params.Provider],
			RedirectURL: appBaseURL + "/oauth/callback/" + string(params.Provider),
			Endpoints:   endpoints,
		})

		log.Info().Msgf("Registering provider adapter for %s", params.Provider)
		p.AdapterSelector.RegisterAdapter(params.Provider, adapter)

		if capabilities, ok := adapter.(domain.ProviderCapabilities); ok {
			p.AdapterSelector.RegisterCapabilities(params.Provider, capabilities)
		}
	}
}

package domain

import (
	"context"
	"fmt"
)

// AdapterSelector is the registry of provider adapters. Adapters are
// registered once at startup and selected per request by provider type.
type AdapterSelector interface {
	RegisterAdapter(provider ProviderType, adapter ProviderAdapter)
	SelectAdapter(ctx context.Context, params SelectAdapterParams) (ProviderAdapter, error)
	RegisterCapabilities(provider ProviderType, capabilities ProviderCapabilities)
	SelectCapabilities(ctx context.Context, params SelectAdapterParams) (ProviderCapabilities, error)
	RegisteredProviders() []ProviderType
	IsRegistered(provider ProviderType) bool
}

type adapterSelector struct {
	adaptersByType     map[ProviderType]ProviderAdapter
	capabilitiesByType map[ProviderType]ProviderCapabilities
}

func NewAdapterSelector() AdapterSelector {
	return &adapterSelector{
		adaptersByType:     make(map[ProviderType]ProviderAdapter),
		capabilitiesByType: make(map[ProviderType]ProviderCapabilities),
	}
}

func (s *adapterSelector) RegisterAdapter(provider ProviderType, adapter ProviderAdapter) {
	s.adaptersByType[provider] = adapter
}

func (s *adapterSelector) SelectAdapter(ctx context.Context, params SelectAdapterParams) (ProviderAdapter, error) {
	adapter, ok := s.adaptersByType[params.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, params.Provider)
	}

	return adapter, nil
}

func (s *adapterSelector) RegisterCapabilities(provider ProviderType, capabilities ProviderCapabilities) {
	s.capabilitiesByType[provider] = capabilities
}

func (s *adapterSelector) SelectCapabilities(ctx context.Context, params SelectAdapterParams) (ProviderCapabilities, error) {
	capabilities, ok := s.capabilitiesByType[params.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, params.Provider)
	}

	return capabilities, nil
}

func (s *adapterSelector) RegisteredProviders() []ProviderType {
	providers := make([]ProviderType, 0, len(s.adaptersByType))

	for provider := range s.adaptersByType {
		providers = append(providers, provider)
	}

	return providers
}

func (s *adapterSelector) IsRegistered(provider ProviderType) bool {
	_, ok := s.adaptersByType[provider]
	return ok
}

package llm

import (
	"fmt"

	"careergpt-api/internal/config"
	"careergpt-api/internal/llm/providers"
)

// Factory creates generation provider instances
type Factory struct {
	config *config.Config
}

// NewFactory creates a new provider factory instance
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{
		config: cfg,
	}
}

// CreateProvider creates a generation provider based on the configuration
func (f *Factory) CreateProvider() (Provider, error) {
	switch f.config.LLM.Provider {
	case "gemini":
		return providers.NewGeminiProvider(f.config)
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", f.config.LLM.Provider)
	}
}

// GetSupportedProviders returns a list of supported generation providers
func (f *Factory) GetSupportedProviders() []string {
	return []string{"gemini"}
}

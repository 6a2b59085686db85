package llm

import (
	"context"
	"fmt"
	"sync"

	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
	"careergpt-api/pkg/models"
)

// Manager manages the generation provider and its lifecycle
type Manager struct {
	config   *config.Config
	factory  *Factory
	provider Provider
	logger   logging.Logger
	mu       sync.RWMutex
	healthy  bool
}

// NewManager creates a new generation manager instance
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		factory: NewFactory(cfg),
		logger:  logging.GetGlobalLogger(),
	}
}

// NewManagerWithProvider wires a pre-built provider, bypassing the factory.
// Used where the provider is constructed elsewhere, including tests.
func NewManagerWithProvider(cfg *config.Config, provider Provider) *Manager {
	return &Manager{
		config:   cfg,
		factory:  NewFactory(cfg),
		provider: provider,
		logger:   logging.GetGlobalLogger(),
		healthy:  provider != nil,
	}
}

// Start initializes the manager and creates the provider
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Starting generation manager", map[string]interface{}{
		"provider": m.config.LLM.Provider,
		"model":    m.config.LLM.Model,
	})

	provider, err := m.factory.CreateProvider()
	if err != nil {
		return fmt.Errorf("failed to create generation provider: %w", err)
	}

	m.provider = provider

	ctx, cancel := context.WithTimeout(context.Background(), m.config.LLM.Timeout)
	defer cancel()

	if err := m.provider.IsHealthy(ctx); err != nil {
		m.logger.Warn("Generation provider health check failed - AI endpoints will degrade", map[string]interface{}{
			"error": err.Error(),
		})
		m.healthy = false
		// Don't return error - allow server to start without the provider
	} else {
		m.healthy = true
		m.logger.Info("Generation manager started successfully", map[string]interface{}{
			"provider": m.provider.GetProviderName(),
		})
	}

	return nil
}

// Stop shuts down the manager
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Info("Stopping generation manager")
	m.provider = nil
	m.healthy = false
	return nil
}

// AnalyzeResume runs the structured analysis mode against the configured provider
func (m *Manager) AnalyzeResume(ctx context.Context, resumeText, targetRole, knownSkills string) (*models.AnalysisReport, error) {
	provider, err := m.currentProvider()
	if err != nil {
		return nil, err
	}
	return provider.AnalyzeResume(ctx, resumeText, targetRole, knownSkills)
}

// ExplainTopic returns a mentor explanation for a roadmap topic
func (m *Manager) ExplainTopic(ctx context.Context, topic, description string) (string, error) {
	provider, err := m.currentProvider()
	if err != nil {
		return "", err
	}
	return provider.ExplainTopic(ctx, topic, description)
}

// InterviewTurn advances a mock interview by one question
func (m *Manager) InterviewTurn(ctx context.Context, targetRole, lastAnswer string, history []models.InterviewExchange) (string, error) {
	provider, err := m.currentProvider()
	if err != nil {
		return "", err
	}
	return provider.InterviewTurn(ctx, targetRole, lastAnswer, history)
}

func (m *Manager) currentProvider() (Provider, error) {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return nil, fmt.Errorf("generation manager not started or provider not available - set GEMINI_API_KEY")
	}
	return provider, nil
}

// IsHealthy checks if the manager and provider are healthy
func (m *Manager) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy && m.provider != nil
}

// GetProviderName returns the name of the current provider
func (m *Manager) GetProviderName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.provider != nil {
		return m.provider.GetProviderName()
	}
	return "none"
}

// CheckHealth performs a health check on the provider and records the result
func (m *Manager) CheckHealth(ctx context.Context) error {
	m.mu.RLock()
	provider := m.provider
	m.mu.RUnlock()

	if provider == nil {
		return fmt.Errorf("generation provider not available")
	}

	err := provider.IsHealthy(ctx)

	m.mu.Lock()
	m.healthy = err == nil
	m.mu.Unlock()

	return err
}

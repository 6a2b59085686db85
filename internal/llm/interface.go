package llm

import (
	"context"

	"careergpt-api/pkg/models"
)

// Provider defines the interface for generation providers
type Provider interface {
	// AnalyzeResume runs the structured analysis mode: one JSON-typed
	// generation call producing a full career-readiness report.
	AnalyzeResume(ctx context.Context, resumeText, targetRole, knownSkills string) (*models.AnalysisReport, error)

	// ExplainTopic returns a free-text mentor explanation for a roadmap topic
	ExplainTopic(ctx context.Context, topic, description string) (string, error)

	// InterviewTurn advances a mock interview by one question, taking the
	// prior exchanges oldest first so the model sees the full history
	InterviewTurn(ctx context.Context, targetRole, lastAnswer string, history []models.InterviewExchange) (string, error)

	// IsHealthy checks if the provider is healthy and available
	IsHealthy(ctx context.Context) error

	// GetProviderName returns the name of the provider
	GetProviderName() string
}

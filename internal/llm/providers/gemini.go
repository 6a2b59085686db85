package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
	"careergpt-api/pkg/models"
)

// GeminiProvider implements the generation provider interface using Gemini
type GeminiProvider struct {
	client *genai.Client
	config *config.Config
	logger logging.Logger
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(cfg *config.Config) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}, nil
}

// AnalyzeResume runs one JSON-typed generation call and parses the result
// into a career-readiness report. Low temperature biases the model toward
// schema-conformant output; the parse is still defensive because free-text
// JSON from a model is never guaranteed.
func (gp *GeminiProvider) AnalyzeResume(ctx context.Context, resumeText, targetRole, knownSkills string) (*models.AnalysisReport, error) {
	startTime := time.Now()

	gp.logger.Info("Starting resume analysis with Gemini", map[string]interface{}{
		"target_role":   targetRole,
		"resume_length": len(resumeText),
		"provider":      "gemini",
	})

	prompt := gp.buildAnalysisPrompt(resumeText, targetRole, knownSkills)

	resp, err := gp.client.Models.GenerateContent(ctx,
		gp.config.LLM.Model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr(gp.config.LLM.Temperature),
			MaxOutputTokens:  int32(gp.config.LLM.MaxTokens),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	report, err := parseAnalysisResponse(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("failed to parse analysis response: %w", err)
	}

	gp.logger.Info("Resume analysis completed", map[string]interface{}{
		"target_role":     targetRole,
		"readiness_score": report.ReadinessScore,
		"processing_time": time.Since(startTime),
		"provider":        "gemini",
	})

	return report, nil
}

// ExplainTopic returns a short mentor explanation as free text
func (gp *GeminiProvider) ExplainTopic(ctx context.Context, topic, description string) (string, error) {
	prompt := fmt.Sprintf(
		"You are a Senior Technical Mentor. Explain the topic '%s' clearly for a student. "+
			"Context: %s. Use bullet points, keep it under 150 words, and focus on practical application.",
		topic, description,
	)

	resp, err := gp.client.Models.GenerateContent(ctx, gp.config.LLM.Model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// InterviewTurn advances the mock interview by one question. The persona
// rides as a system instruction; prior exchanges are linearized oldest
// first so the model's next question accounts for the full history.
func (gp *GeminiProvider) InterviewTurn(ctx context.Context, targetRole, lastAnswer string, history []models.InterviewExchange) (string, error) {
	persona := fmt.Sprintf(
		"You are a Senior Technical Lead at a top-tier tech company. "+
			"You are conducting a technical interview for the role of %s. "+
			"STRICT RULES: "+
			"1. Ask exactly ONE technical question at a time. "+
			"2. Evaluate the user's previous answer briefly (2 sentences max). "+
			"3. Progress from fundamental concepts to complex architecture. "+
			"4. If the user's answer is weak, ask a clarifying follow-up. "+
			"5. Maintain a professional, slightly intimidating but fair tone.",
		targetRole,
	)

	resp, err := gp.client.Models.GenerateContent(ctx,
		gp.config.LLM.Model,
		genai.Text(buildInterviewContext(targetRole, lastAnswer, history)),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: persona}}},
		},
	)
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

// buildAnalysisPrompt creates the structured-analysis prompt. The response
// schema is spelled out verbatim so the report always carries the seven
// top-level keys the dashboard consumes.
func (gp *GeminiProvider) buildAnalysisPrompt(resumeText, targetRole, knownSkills string) string {
	return fmt.Sprintf(`You are an elite Career Strategy Engine with deep expertise in global tech markets and recruitment algorithms.
Analyze the inputs provided to generate a high-fidelity, actionable job readiness report.

INPUT DATA:
- TARGET ROLE: %s
- RESUME CONTENT: %s
- ADDITIONAL CONTEXT/SKILLS: %s

ANALYTICAL TASKS:
1. READINESS SCORE: Calculate a percentage (0-100) based on how the Resume + Known Skills align with current industry expectations for the TARGET ROLE.
2. SKILL QUANTIZATION:
   - 'skills': Verified assets found in the input.
   - 'required_skills': The industry-standard stack for the target role.
   - 'missing_skills': The critical gap the user must bridge.
3. MARKET PIVOTS: Identify 3-5 'eligible_roles' where the user's current skill overlap is >80%%.
4. COMPENSATION BENCHMARKING: Provide estimated annual salary tiers in INR (India Market) formatted with commas (e.g., "12,00,000").
5. MULTI-TRACK MASTERY ROADMAP: Generate exhaustive day-by-day upskilling plans for 30, 60, and 90-day durations.

ROADMAP CONTENT STANDARDS:
- 'day': Format as "Day X".
- 'video': Provide a direct YouTube search link: https://www.youtube.com/results?search_query=[topic]+tutorial.
- 'practice': Provide a specific LeetCode problem URL, a GitHub repo template, or a highly specific project idea.
- 'docs': Provide the absolute URL to the official technical documentation (e.g., docs.python.org, react.dev).

STRICT OUTPUT RULE: Return valid JSON ONLY. No conversational filler.

RESPONSE SCHEMA:
{
  "readiness_score": 0,
  "skills": ["string"],
  "required_skills": ["string"],
  "missing_skills": ["string"],
  "eligible_roles": ["string"],
  "salary_tiers": {
    "entry": "string",
    "mid": "string",
    "senior": "string"
  },
  "preparation_plans": {
    "30": [{ "day": "string", "topic": "string", "description": "string", "video": "string", "practice": "string", "docs": "string" }],
    "60": [{ "day": "string", "topic": "string", "description": "string", "video": "string", "practice": "string", "docs": "string" }],
    "90": [{ "day": "string", "topic": "string", "description": "string", "video": "string", "practice": "string", "docs": "string" }]
  }
}`, targetRole, resumeText, knownSkills)
}

// buildInterviewContext linearizes the visible conversation, oldest exchange
// first, followed by the candidate's latest response.
func buildInterviewContext(targetRole, lastAnswer string, history []models.InterviewExchange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target Role: %s\n", targetRole)
	for _, exchange := range history {
		fmt.Fprintf(&b, "Interviewer: %s\nCandidate: %s\n", exchange.Question, exchange.Answer)
	}

	if lastAnswer == "" {
		lastAnswer = "Let's start the interview."
	}
	fmt.Fprintf(&b, "Candidate's latest response: %s", lastAnswer)

	return b.String()
}

// parseAnalysisResponse parses model output into a report, tolerating
// markdown code fences the model sometimes wraps JSON in.
func parseAnalysisResponse(responseText string) (*models.AnalysisReport, error) {
	responseText = strings.TrimSpace(responseText)
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)
	}

	if responseText == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	var report models.AnalysisReport
	if err := json.Unmarshal([]byte(responseText), &report); err != nil {
		return nil, fmt.Errorf("invalid JSON from Gemini: %w", err)
	}

	if report.ReadinessScore < 0 {
		report.ReadinessScore = 0
	}
	if report.ReadinessScore > 100 {
		report.ReadinessScore = 100
	}
	report.Normalize()

	return &report, nil
}

// IsHealthy checks if the Gemini provider is healthy and available
func (gp *GeminiProvider) IsHealthy(ctx context.Context) error {
	if gp.config.LLM.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured - set GEMINI_API_KEY environment variable")
	}

	_, err := gp.client.Models.GenerateContent(ctx, gp.config.LLM.Model, genai.Text("Hello"), &genai.GenerateContentConfig{
		MaxOutputTokens: 10,
	})
	if err != nil {
		return fmt.Errorf("Gemini health check failed: %w", err)
	}

	return nil
}

// GetProviderName returns the name of the provider
func (gp *GeminiProvider) GetProviderName() string {
	return "gemini"
}

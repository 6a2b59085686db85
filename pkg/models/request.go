package models

// AnalyzeRequest represents the request payload for a career analysis
type AnalyzeRequest struct {
	ResumeText  string `json:"resume_text" validate:"required,min=50"`
	TargetRole  string `json:"target_role" validate:"required"`
	KnownSkills string `json:"known_skills,omitempty"`
}

// ProgressUpdateRequest represents a single roadmap progress mutation
type ProgressUpdateRequest struct {
	AnalysisID   string `json:"analysis_id" validate:"required,uuid"`
	DayLabel     string `json:"day_label" validate:"required"`
	IsCompleted  bool   `json:"is_completed"`
	DurationType string `json:"duration_type" validate:"omitempty,oneof=30 60 90"`
	SkillScore   *int   `json:"skill_score,omitempty" validate:"omitempty,min=0,max=5"`
}

// ExplainRequest represents the request payload for a topic explanation
type ExplainRequest struct {
	Topic       string `json:"topic" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// InterviewRequest represents one turn of a mock interview. History carries
// prior exchanges oldest first; LastAnswer is the candidate's reply to the
// most recent question, empty on the opening turn.
type InterviewRequest struct {
	TargetRole string              `json:"target_role" validate:"required"`
	LastAnswer string              `json:"last_answer,omitempty"`
	History    []InterviewExchange `json:"history,omitempty"`
}

package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressUpdateResponse wraps the row state after a progress upsert
type ProgressUpdateResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

// DeleteResponse acknowledges a record deletion
type DeleteResponse struct {
	Status string `json:"status"`
}

// ExplainResponse carries the mentor explanation text
type ExplainResponse struct {
	Explanation string `json:"explanation"`
}

// InterviewResponse carries the interviewer's next question
type InterviewResponse struct {
	Question string `json:"question"`
}

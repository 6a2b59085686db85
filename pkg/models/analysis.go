package models

// PlanDurations are the roadmap buckets every analysis must carry, in the
// order the dashboard renders them.
var PlanDurations = []string{"30", "60", "90"}

// RoadmapTask represents a single day entry inside a preparation plan
type RoadmapTask struct {
	Day         string `json:"day"`
	Topic       string `json:"topic"`
	Description string `json:"description"`
	Video       string `json:"video"`
	Practice    string `json:"practice"`
	Docs        string `json:"docs"`
}

// SalaryTiers holds the estimated annual compensation bands for the target role
type SalaryTiers struct {
	Entry  string `json:"entry"`
	Mid    string `json:"mid"`
	Senior string `json:"senior"`
}

// AnalysisReport is the structured career-readiness report produced by the
// generation provider. ID and CreatedAt are attached after persistence.
type AnalysisReport struct {
	ID              string                   `json:"id,omitempty"`
	TargetRole      string                   `json:"target_role,omitempty"`
	ReadinessScore  int                      `json:"readiness_score"`
	Skills          []string                 `json:"skills"`
	RequiredSkills  []string                 `json:"required_skills"`
	MissingSkills   []string                 `json:"missing_skills"`
	EligibleRoles   []string                 `json:"eligible_roles"`
	SalaryTiers     SalaryTiers              `json:"salary_tiers"`
	PreparationPlan map[string][]RoadmapTask `json:"preparation_plans"`
}

// Normalize guarantees every duration bucket is present and non-nil so that
// roadmap seeding and the response contract never see a missing key. The
// provider occasionally returns partial plans; that is not treated as fatal.
func (r *AnalysisReport) Normalize() {
	if r.PreparationPlan == nil {
		r.PreparationPlan = make(map[string][]RoadmapTask, len(PlanDurations))
	}
	for _, duration := range PlanDurations {
		if r.PreparationPlan[duration] == nil {
			r.PreparationPlan[duration] = []RoadmapTask{}
		}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.RequiredSkills == nil {
		r.RequiredSkills = []string{}
	}
	if r.MissingSkills == nil {
		r.MissingSkills = []string{}
	}
	if r.EligibleRoles == nil {
		r.EligibleRoles = []string{}
	}
}

// InterviewExchange is one prior question/answer pair of a mock interview,
// oldest first in the request history.
type InterviewExchange struct {
	Question string `json:"q"`
	Answer   string `json:"a"`
}

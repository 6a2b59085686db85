package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"careergpt-api/pkg/models"
)

// Analysis is one persisted career-readiness report. Immutable after insert
// except for deletion by the owning user.
type Analysis struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string         `gorm:"column:user_id;not null;index" json:"user_id"`
	TargetRole       string         `gorm:"column:target_role;not null" json:"target_role"`
	ReadinessScore   int            `gorm:"column:readiness_score;not null;default:0" json:"readiness_score"`
	Skills           datatypes.JSON `gorm:"column:skills;type:jsonb" json:"skills"`
	RequiredSkills   datatypes.JSON `gorm:"column:required_skills;type:jsonb" json:"required_skills"`
	MissingSkills    datatypes.JSON `gorm:"column:missing_skills;type:jsonb" json:"missing_skills"`
	EligibleRoles    datatypes.JSON `gorm:"column:eligible_roles;type:jsonb" json:"eligible_roles"`
	SalaryTiers      datatypes.JSON `gorm:"column:salary_tiers;type:jsonb" json:"salary_tiers"`
	PreparationPlans datatypes.JSON `gorm:"column:preparation_plans;type:jsonb" json:"preparation_plans"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Analysis) TableName() string { return "analyses" }

// BeforeCreate assigns the row id; done in a hook rather than a column
// default so sqlite-backed tests behave like Postgres.
func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// RoadmapProgress is one task's completion state for one duration bucket of
// one analysis. The composite unique key makes every write an upsert target;
// concurrent writes to the same key are last-write-wins by design.
type RoadmapProgress struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID       string    `gorm:"column:user_id;not null;uniqueIndex:idx_roadmap_progress_key" json:"user_id"`
	AnalysisID   uuid.UUID `gorm:"type:uuid;column:analysis_id;not null;uniqueIndex:idx_roadmap_progress_key" json:"analysis_id"`
	DayLabel     string    `gorm:"column:day_label;not null;uniqueIndex:idx_roadmap_progress_key" json:"day_label"`
	DurationType string    `gorm:"column:duration_type;not null;uniqueIndex:idx_roadmap_progress_key" json:"duration_type"`
	IsCompleted  bool      `gorm:"column:is_completed;not null;default:false" json:"is_completed"`
	SkillScore   int       `gorm:"column:skill_score;not null;default:5" json:"skill_score"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

func (RoadmapProgress) TableName() string { return "roadmap_progress" }

func (p *RoadmapProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewAnalysisRow converts a generation report into a persistable row
func NewAnalysisRow(userID, targetRole string, report *models.AnalysisReport) (*Analysis, error) {
	row := &Analysis{
		UserID:         userID,
		TargetRole:     targetRole,
		ReadinessScore: report.ReadinessScore,
	}

	for _, field := range []struct {
		dst   *datatypes.JSON
		value interface{}
	}{
		{&row.Skills, report.Skills},
		{&row.RequiredSkills, report.RequiredSkills},
		{&row.MissingSkills, report.MissingSkills},
		{&row.EligibleRoles, report.EligibleRoles},
		{&row.SalaryTiers, report.SalaryTiers},
		{&row.PreparationPlans, report.PreparationPlan},
	} {
		data, err := json.Marshal(field.value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode analysis field: %w", err)
		}
		*field.dst = datatypes.JSON(data)
	}

	return row, nil
}

// SeedRows flattens every plan bucket of a freshly persisted analysis into
// initial progress rows: not completed, skill score defaulted to 5. Buckets
// missing from the report contribute nothing rather than failing.
func SeedRows(userID string, analysisID uuid.UUID, report *models.AnalysisReport) []*RoadmapProgress {
	var rows []*RoadmapProgress
	for _, duration := range models.PlanDurations {
		for _, task := range report.PreparationPlan[duration] {
			if task.Day == "" {
				continue
			}
			rows = append(rows, &RoadmapProgress{
				UserID:       userID,
				AnalysisID:   analysisID,
				DayLabel:     task.Day,
				DurationType: duration,
				IsCompleted:  false,
				SkillScore:   5,
			})
		}
	}
	return rows
}

package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// progressConflictKey is the declared conflict key for roadmap progress
// upserts: one row per (user, analysis, day, duration), overwrite on repeat.
var progressConflictKey = []clause.Column{
	{Name: "user_id"},
	{Name: "analysis_id"},
	{Name: "day_label"},
	{Name: "duration_type"},
}

// ProgressRepo provides typed access to the roadmap_progress relation
type ProgressRepo interface {
	BulkUpsert(ctx context.Context, tx *gorm.DB, rows []*RoadmapProgress) error
	Upsert(ctx context.Context, row *RoadmapProgress) (*RoadmapProgress, error)
	ListByAnalysisAndUser(ctx context.Context, analysisID uuid.UUID, userID string) ([]*RoadmapProgress, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo creates a repo over the shared database handle
func NewProgressRepo(db *gorm.DB) ProgressRepo {
	return &progressRepo{db: db}
}

// BulkUpsert seeds or refreshes progress rows in one statement
func (r *progressRepo) BulkUpsert(ctx context.Context, tx *gorm.DB, rows []*RoadmapProgress) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}

	now := time.Now()
	for _, row := range rows {
		row.UpdatedAt = now
	}

	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: progressConflictKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"is_completed",
			"skill_score",
			"updated_at",
		}),
	}).Create(&rows).Error
}

// Upsert writes one progress row under the composite key, overwriting any
// previous state for that key
func (r *progressRepo) Upsert(ctx context.Context, row *RoadmapProgress) (*RoadmapProgress, error) {
	row.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: progressConflictKey,
		DoUpdates: clause.AssignmentColumns([]string{
			"is_completed",
			"skill_score",
			"updated_at",
		}),
	}).Create(row).Error; err != nil {
		return nil, err
	}

	// Re-read so the caller sees the stored row, not the in-memory candidate,
	// after a conflict resolved in favor of an existing id.
	var stored RoadmapProgress
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND analysis_id = ? AND day_label = ? AND duration_type = ?",
			row.UserID, row.AnalysisID, row.DayLabel, row.DurationType).
		First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByAnalysisAndUser returns progress rows for one analysis, always
// filtered by the verified caller id
func (r *progressRepo) ListByAnalysisAndUser(ctx context.Context, analysisID uuid.UUID, userID string) ([]*RoadmapProgress, error) {
	var out []*RoadmapProgress
	if err := r.db.WithContext(ctx).
		Where("analysis_id = ? AND user_id = ?", analysisID, userID).
		Order("duration_type ASC, day_label ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

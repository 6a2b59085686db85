package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalysisRepo provides typed access to the analyses relation. Every
// operation is scoped by the verified caller id passed in by the
// orchestration layer; the repo itself never authorizes.
type AnalysisRepo interface {
	Insert(ctx context.Context, tx *gorm.DB, row *Analysis) (*Analysis, error)
	ListByUser(ctx context.Context, userID string) ([]*Analysis, error)
	DeleteByIDAndUser(ctx context.Context, id uuid.UUID, userID string) error
}

type analysisRepo struct {
	db *gorm.DB
}

// NewAnalysisRepo creates a repo over the shared database handle
func NewAnalysisRepo(db *gorm.DB) AnalysisRepo {
	return &analysisRepo{db: db}
}

// Insert persists one analysis row and returns it with the generated id
func (r *analysisRepo) Insert(ctx context.Context, tx *gorm.DB, row *Analysis) (*Analysis, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, fmt.Errorf("insert returned no id")
	}
	return row, nil
}

// ListByUser returns the caller's analyses, newest first
func (r *analysisRepo) ListByUser(ctx context.Context, userID string) ([]*Analysis, error) {
	var out []*Analysis
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByIDAndUser deletes an analysis scoped to its owner. Ownership is
// part of the delete predicate, so a non-owner's call matches zero rows and
// succeeds without touching anything. Progress rows go with the analysis.
func (r *analysisRepo) DeleteByIDAndUser(ctx context.Context, id uuid.UUID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("analysis_id = ? AND user_id = ?", id, userID).
			Delete(&RoadmapProgress{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ? AND user_id = ?", id, userID).
			Delete(&Analysis{}).Error
	})
}

package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"careergpt-api/pkg/models"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	// Named per-test shared in-memory database: pooled connections see the
	// same schema, separate tests do not share state.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Analysis{}, &RoadmapProgress{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewGatewayWithDB(db)
}

func sampleReport() *models.AnalysisReport {
	return &models.AnalysisReport{
		ReadinessScore: 72,
		Skills:         []string{"Go", "SQL"},
		RequiredSkills: []string{"Go", "SQL", "Kubernetes"},
		MissingSkills:  []string{"Kubernetes"},
		EligibleRoles:  []string{"Backend Engineer"},
		SalaryTiers:    models.SalaryTiers{Entry: "$70k", Mid: "$110k", Senior: "$160k"},
		PreparationPlan: map[string][]models.RoadmapTask{
			"30": {
				{Day: "Day 1-3", Topic: "Go fundamentals", Description: "Review goroutines"},
				{Day: "Day 4-7", Topic: "SQL joins", Description: "Practice joins"},
			},
			"60": {
				{Day: "Day 1-10", Topic: "Kubernetes basics", Description: "Deploy a pod"},
			},
			"90": {
				{Day: "Day 1-15", Topic: "System design", Description: "Design a queue"},
			},
		},
	}
}

func TestInsertAndListByUser(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	row, err := NewAnalysisRow("user-a", "Backend Engineer", sampleReport())
	if err != nil {
		t.Fatalf("NewAnalysisRow: %v", err)
	}
	stored, err := gw.Analyses.Insert(ctx, nil, row)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if stored.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}

	rows, err := gw.Analyses.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].TargetRole != "Backend Engineer" || rows[0].ReadinessScore != 72 {
		t.Fatalf("unexpected row: %+v", rows[0])
	}

	other, err := gw.Analyses.ListByUser(ctx, "user-b")
	if err != nil {
		t.Fatalf("ListByUser other: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no rows for other user, got %d", len(other))
	}
}

func TestSeedRowsCoversEveryBucket(t *testing.T) {
	report := sampleReport()
	rows := SeedRows("user-a", uuid.New(), report)

	if len(rows) != 4 {
		t.Fatalf("expected 4 seed rows, got %d", len(rows))
	}
	byDuration := map[string]int{}
	for _, row := range rows {
		byDuration[row.DurationType]++
		if row.IsCompleted {
			t.Fatalf("seed row %q should start incomplete", row.DayLabel)
		}
		if row.SkillScore != 5 {
			t.Fatalf("seed row %q should start at skill score 5, got %d", row.DayLabel, row.SkillScore)
		}
	}
	if byDuration["30"] != 2 || byDuration["60"] != 1 || byDuration["90"] != 1 {
		t.Fatalf("unexpected duration spread: %v", byDuration)
	}
}

func TestSeedRowsSkipsEmptyDayLabels(t *testing.T) {
	report := sampleReport()
	report.PreparationPlan["60"] = append(report.PreparationPlan["60"], models.RoadmapTask{Topic: "no day"})

	rows := SeedRows("user-a", uuid.New(), report)
	for _, row := range rows {
		if row.DayLabel == "" {
			t.Fatalf("empty day label must not be seeded")
		}
	}
}

func TestSeedRowsToleratesMissingBuckets(t *testing.T) {
	report := sampleReport()
	delete(report.PreparationPlan, "90")

	rows := SeedRows("user-a", uuid.New(), report)
	if len(rows) != 3 {
		t.Fatalf("expected 3 seed rows without the 90-day bucket, got %d", len(rows))
	}
}

func TestProgressUpsertIsIdempotent(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	analysisID := uuid.New()

	first, err := gw.Progress.Upsert(ctx, &RoadmapProgress{
		UserID:       "user-a",
		AnalysisID:   analysisID,
		DayLabel:     "Day 1-3",
		DurationType: "30",
		IsCompleted:  false,
		SkillScore:   5,
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	second, err := gw.Progress.Upsert(ctx, &RoadmapProgress{
		UserID:       "user-a",
		AnalysisID:   analysisID,
		DayLabel:     "Day 1-3",
		DurationType: "30",
		IsCompleted:  true,
		SkillScore:   4,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("upsert created a new row instead of updating: %s vs %s", first.ID, second.ID)
	}
	if !second.IsCompleted || second.SkillScore != 4 {
		t.Fatalf("update not applied: %+v", second)
	}

	rows, err := gw.Progress.ListByAnalysisAndUser(ctx, analysisID, "user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected a single row after repeated upserts, got %d", len(rows))
	}
}

func TestProgressSameDayLabelAcrossDurations(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	analysisID := uuid.New()

	for _, duration := range models.PlanDurations {
		if _, err := gw.Progress.Upsert(ctx, &RoadmapProgress{
			UserID:       "user-a",
			AnalysisID:   analysisID,
			DayLabel:     "Day 1-3",
			DurationType: duration,
			SkillScore:   5,
		}); err != nil {
			t.Fatalf("upsert %s: %v", duration, err)
		}
	}

	rows, err := gw.Progress.ListByAnalysisAndUser(ctx, analysisID, "user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("same day label in different durations must be distinct rows, got %d", len(rows))
	}
}

func TestProgressListScopedToUser(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	analysisID := uuid.New()

	if _, err := gw.Progress.Upsert(ctx, &RoadmapProgress{
		UserID: "user-a", AnalysisID: analysisID, DayLabel: "Day 1-3", DurationType: "30", SkillScore: 5,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	rows, err := gw.Progress.ListByAnalysisAndUser(ctx, analysisID, "user-b")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("another user's progress must not be visible, got %d rows", len(rows))
	}
}

func TestDeleteRemovesAnalysisAndProgress(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()
	report := sampleReport()

	row, err := NewAnalysisRow("user-a", "Backend Engineer", report)
	if err != nil {
		t.Fatalf("NewAnalysisRow: %v", err)
	}
	if err := gw.Transaction(func(tx *gorm.DB) error {
		var txErr error
		if row, txErr = gw.Analyses.Insert(ctx, tx, row); txErr != nil {
			return txErr
		}
		return gw.Progress.BulkUpsert(ctx, tx, SeedRows("user-a", row.ID, report))
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	if err := gw.Analyses.DeleteByIDAndUser(ctx, row.ID, "user-a"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	analyses, err := gw.Analyses.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("list analyses: %v", err)
	}
	if len(analyses) != 0 {
		t.Fatalf("analysis should be gone, got %d", len(analyses))
	}
	progress, err := gw.Progress.ListByAnalysisAndUser(ctx, row.ID, "user-a")
	if err != nil {
		t.Fatalf("list progress: %v", err)
	}
	if len(progress) != 0 {
		t.Fatalf("progress rows should be gone, got %d", len(progress))
	}
}

func TestDeleteIgnoresOtherUsersRecord(t *testing.T) {
	gw := newTestGateway(t)
	ctx := context.Background()

	row, err := NewAnalysisRow("user-a", "Backend Engineer", sampleReport())
	if err != nil {
		t.Fatalf("NewAnalysisRow: %v", err)
	}
	if row, err = gw.Analyses.Insert(ctx, nil, row); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Different caller, same id: silent no-op.
	if err := gw.Analyses.DeleteByIDAndUser(ctx, row.ID, "user-b"); err != nil {
		t.Fatalf("cross-user delete should not error: %v", err)
	}

	rows, err := gw.Analyses.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("record must survive a cross-user delete, got %d rows", len(rows))
	}
}

func TestDeleteMissingRecordIsNoOp(t *testing.T) {
	gw := newTestGateway(t)

	if err := gw.Analyses.DeleteByIDAndUser(context.Background(), uuid.New(), "user-a"); err != nil {
		t.Fatalf("deleting a missing record should not error: %v", err)
	}
}

func TestNilGatewayIsUnavailable(t *testing.T) {
	var gw *Gateway
	if gw.Available() {
		t.Fatalf("nil gateway must report unavailable")
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("closing a nil gateway must be safe: %v", err)
	}
}

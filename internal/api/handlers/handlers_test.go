package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"careergpt-api/internal/auth"
	"careergpt-api/internal/config"
	"careergpt-api/internal/llm"
	"careergpt-api/internal/storage"
	"careergpt-api/pkg/models"
)

// stubProvider is a canned generation provider for handler tests
type stubProvider struct {
	report       *models.AnalysisReport
	analyzeErr   error
	explanation  string
	explainErr   error
	question     string
	interviewErr error
}

func (s *stubProvider) AnalyzeResume(ctx context.Context, resumeText, targetRole, knownSkills string) (*models.AnalysisReport, error) {
	if s.analyzeErr != nil {
		return nil, s.analyzeErr
	}
	return s.report, nil
}

func (s *stubProvider) ExplainTopic(ctx context.Context, topic, description string) (string, error) {
	if s.explainErr != nil {
		return "", s.explainErr
	}
	return s.explanation, nil
}

func (s *stubProvider) InterviewTurn(ctx context.Context, targetRole, lastAnswer string, history []models.InterviewExchange) (string, error) {
	if s.interviewErr != nil {
		return "", s.interviewErr
	}
	return s.question, nil
}

func (s *stubProvider) IsHealthy(ctx context.Context) error { return nil }
func (s *stubProvider) GetProviderName() string             { return "stub" }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LLM.Provider = "stub"
	return cfg
}

func testManager(provider llm.Provider) *llm.Manager {
	return llm.NewManagerWithProvider(testConfig(), provider)
}

func testGateway(t *testing.T) *storage.Gateway {
	t.Helper()
	// Named per-test shared in-memory database: pooled connections see the
	// same schema, separate tests do not share state.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&storage.Analysis{}, &storage.RoadmapProgress{}))
	return storage.NewGatewayWithDB(db)
}

func testReport() *models.AnalysisReport {
	report := &models.AnalysisReport{
		ReadinessScore: 64,
		Skills:         []string{"Go"},
		RequiredSkills: []string{"Go", "Docker"},
		MissingSkills:  []string{"Docker"},
		EligibleRoles:  []string{"Platform Engineer"},
		SalaryTiers:    models.SalaryTiers{Entry: "6,00,000", Mid: "14,00,000", Senior: "28,00,000"},
		PreparationPlan: map[string][]models.RoadmapTask{
			"30": {{Day: "Day 1", Topic: "Docker basics"}},
			"60": {{Day: "Day 1", Topic: "Compose"}, {Day: "Day 2", Topic: "Networking"}},
			"90": {{Day: "Day 1", Topic: "Orchestration"}},
		},
	}
	report.Normalize()
	return report
}

// doRequest runs a handler with a verified identity already on the context,
// the way RequireAuth leaves it in production.
func doRequest(t *testing.T, handler echo.HandlerFunc, method, path, body string, userID string, pathParams map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req_test")
	c.Set("caller_identity", &auth.Identity{UID: userID})
	if len(pathParams) > 0 {
		names := make([]string, 0, len(pathParams))
		values := make([]string, 0, len(pathParams))
		for name, value := range pathParams {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, handler(c))
	return rec
}

const validResume = "Five years building Go microservices, Postgres schemas, CI pipelines and Kubernetes deployments at scale."

func analyzeBody(targetRole string) string {
	return fmt.Sprintf(`{"resume_text": %q, "target_role": %q, "known_skills": "Go, SQL"}`, validResume, targetRole)
}

func TestAnalyzeHandlerPersistsAndSeeds(t *testing.T) {
	gateway := testGateway(t)
	handler := AnalyzeHandler(testConfig(), testManager(&stubProvider{report: testReport()}), gateway)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/analyze", analyzeBody("Platform Engineer"), "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID, "persisted analysis must carry its id")
	assert.Equal(t, "Platform Engineer", got.TargetRole)
	assert.Equal(t, 64, got.ReadinessScore)
	for _, duration := range models.PlanDurations {
		assert.NotNil(t, got.PreparationPlan[duration])
	}

	analysisID, err := uuid.Parse(got.ID)
	require.NoError(t, err)
	rows, err := gateway.Progress.ListByAnalysisAndUser(context.Background(), analysisID, "user-a")
	require.NoError(t, err)
	assert.Len(t, rows, 4, "every plan entry should be seeded")
	for _, row := range rows {
		assert.False(t, row.IsCompleted)
		assert.Equal(t, 5, row.SkillScore)
	}
}

func TestAnalyzeHandlerWithoutPersistence(t *testing.T) {
	handler := AnalyzeHandler(testConfig(), testManager(&stubProvider{report: testReport()}), nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/analyze", analyzeBody("Platform Engineer"), "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, got.ID, "no id without persistence")
	assert.Equal(t, 64, got.ReadinessScore)
}

func TestAnalyzeHandlerValidation(t *testing.T) {
	handler := AnalyzeHandler(testConfig(), testManager(&stubProvider{report: testReport()}), nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/analyze",
		`{"resume_text": "too short", "target_role": "Engineer"}`, "user-a", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doRequest(t, handler, http.MethodPost, "/api/v1/analyze",
		fmt.Sprintf(`{"resume_text": %q}`, validResume), "user-a", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalyzeHandlerMapsProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"quota exhausted", fmt.Errorf("generation call failed: googleapi: Error 429: RESOURCE_EXHAUSTED"), http.StatusTooManyRequests},
		{"provider down", fmt.Errorf("generation call failed: connection refused"), http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AnalyzeHandler(testConfig(), testManager(&stubProvider{analyzeErr: tc.err}), nil)
			rec := doRequest(t, handler, http.MethodPost, "/api/v1/analyze", analyzeBody("Engineer"), "user-a", nil)
			assert.Equal(t, tc.code, rec.Code)

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp.Message, "generation call failed")
		})
	}
}

func TestUpdateProgressHandler(t *testing.T) {
	gateway := testGateway(t)
	handler := UpdateProgressHandler(testConfig(), gateway)
	analysisID := uuid.New()

	body := fmt.Sprintf(`{"analysis_id": %q, "day_label": "Day 1", "is_completed": true, "duration_type": "60", "skill_score": 3}`, analysisID)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/update-progress", body, "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ProgressUpdateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)

	rows, err := gateway.Progress.ListByAnalysisAndUser(context.Background(), analysisID, "user-a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsCompleted)
	assert.Equal(t, 3, rows[0].SkillScore)
	assert.Equal(t, "60", rows[0].DurationType)
}

func TestUpdateProgressHandlerDefaults(t *testing.T) {
	gateway := testGateway(t)
	handler := UpdateProgressHandler(testConfig(), gateway)
	analysisID := uuid.New()

	body := fmt.Sprintf(`{"analysis_id": %q, "day_label": "Day 2", "is_completed": false}`, analysisID)
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/update-progress", body, "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := gateway.Progress.ListByAnalysisAndUser(context.Background(), analysisID, "user-a")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "30", rows[0].DurationType, "duration defaults to the 30-day bucket")
	assert.Equal(t, 5, rows[0].SkillScore, "skill score defaults to 5")
}

func TestUpdateProgressHandlerWithoutPersistence(t *testing.T) {
	handler := UpdateProgressHandler(testConfig(), nil)

	body := fmt.Sprintf(`{"analysis_id": %q, "day_label": "Day 1", "is_completed": true}`, uuid.New())
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/update-progress", body, "user-a", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUpdateProgressHandlerRejectsBadAnalysisID(t *testing.T) {
	handler := UpdateProgressHandler(testConfig(), testGateway(t))

	body := `{"analysis_id": "not-a-uuid", "day_label": "Day 1", "is_completed": true}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/update-progress", body, "user-a", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetProgressHandler(t *testing.T) {
	gateway := testGateway(t)
	analysisID := uuid.New()
	_, err := gateway.Progress.Upsert(context.Background(), &storage.RoadmapProgress{
		UserID: "user-a", AnalysisID: analysisID, DayLabel: "Day 1", DurationType: "30", SkillScore: 5,
	})
	require.NoError(t, err)

	handler := GetProgressHandler(testConfig(), gateway)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/get-progress/"+analysisID.String(), "", "user-a",
		map[string]string{"analysis_id": analysisID.String()})
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []*storage.RoadmapProgress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	// Another caller sees nothing.
	rec = doRequest(t, handler, http.MethodGet, "/api/v1/get-progress/"+analysisID.String(), "", "user-b",
		map[string]string{"analysis_id": analysisID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}

func TestGetProgressHandlerDegradesToEmpty(t *testing.T) {
	handler := GetProgressHandler(testConfig(), nil)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/get-progress/abc", "", "user-a",
		map[string]string{"analysis_id": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRecordsHandler(t *testing.T) {
	gateway := testGateway(t)
	for _, role := range []string{"Backend Engineer", "Data Engineer"} {
		row, err := storage.NewAnalysisRow("user-a", role, testReport())
		require.NoError(t, err)
		_, err = gateway.Analyses.Insert(context.Background(), nil, row)
		require.NoError(t, err)
	}

	handler := ListRecordsHandler(testConfig(), gateway)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/learning-records", "", "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []*storage.Analysis
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	assert.Len(t, rows, 2)

	rec = doRequest(t, handler, http.MethodGet, "/api/v1/learning-records", "", "user-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListRecordsHandlerDegradesToEmpty(t *testing.T) {
	handler := ListRecordsHandler(testConfig(), nil)
	rec := doRequest(t, handler, http.MethodGet, "/api/v1/learning-records", "", "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestDeleteRecordHandler(t *testing.T) {
	gateway := testGateway(t)
	row, err := storage.NewAnalysisRow("user-a", "Backend Engineer", testReport())
	require.NoError(t, err)
	row, err = gateway.Analyses.Insert(context.Background(), nil, row)
	require.NoError(t, err)

	handler := DeleteRecordHandler(testConfig(), gateway)
	rec := doRequest(t, handler, http.MethodDelete, "/api/v1/delete-record/"+row.ID.String(), "", "user-a",
		map[string]string{"record_id": row.ID.String()})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	remaining, err := gateway.Analyses.ListByUser(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestDeleteRecordHandlerSilentOnMissing(t *testing.T) {
	handler := DeleteRecordHandler(testConfig(), testGateway(t))

	for _, recordID := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := doRequest(t, handler, http.MethodDelete, "/api/v1/delete-record/"+recordID, "", "user-a",
			map[string]string{"record_id": recordID})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	}
}

func TestExplainTaskHandler(t *testing.T) {
	handler := ExplainTaskHandler(testConfig(), testManager(&stubProvider{explanation: "Channels synchronize goroutines."}), nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/explain-task",
		`{"topic": "Channels", "description": "Go concurrency"}`, "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.ExplainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Channels synchronize goroutines.", resp.Explanation)
}

func TestExplainTaskHandlerFallsBackOn200(t *testing.T) {
	handler := ExplainTaskHandler(testConfig(), testManager(&stubProvider{explainErr: fmt.Errorf("provider offline")}), nil)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/explain-task",
		`{"topic": "Channels", "description": "Go concurrency"}`, "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code, "mentor failures must never surface as errors")

	var resp models.ExplainResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ExplainOfflineFallback, resp.Explanation)
}

func TestMockInterviewHandler(t *testing.T) {
	handler := MockInterviewHandler(testConfig(), testManager(&stubProvider{question: "Good. Now, how does a select statement behave with multiple ready channels?"}))

	body := `{"target_role": "Backend Engineer", "last_answer": "Channels block.", "history": [{"q": "What is a channel?", "a": "A typed conduit."}]}`
	rec := doRequest(t, handler, http.MethodPost, "/api/v1/mock-interview", body, "user-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.InterviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Question, "select statement")
}

func TestMockInterviewHandlerProviderFailure(t *testing.T) {
	handler := MockInterviewHandler(testConfig(), testManager(&stubProvider{interviewErr: fmt.Errorf("generation call failed: timeout")}))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/mock-interview",
		`{"target_role": "Backend Engineer"}`, "user-a", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMockInterviewHandlerRequiresTargetRole(t *testing.T) {
	handler := MockInterviewHandler(testConfig(), testManager(&stubProvider{question: "Q"}))

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/mock-interview", `{"last_answer": "hi"}`, "user-a", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

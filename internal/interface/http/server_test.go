package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readbridge-edu/readbridge-progress/internal/application/command"
	"github.com/readbridge-edu/readbridge-progress/internal/application/query"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/student"
	"github.com/readbridge-edu/readbridge-progress/internal/infrastructure/persistence/memory"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

const httpStudentID = "3d5a61b8-93ee-47a1-8a34-6be0c5d6f111"

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := memory.NewStore()
	store.SeedStudents(&student.Student{
		ID:       httpStudentID,
		LegacyID: 777,
		Email:    "zoe@example.org",
		FullName: "Zoe K.",
		Grade:    "K",
	})
	store.SeedDefinitions(assessment.Definition{
		ID: "asm-alphabet-knowledge",
		Questions: []assessment.Question{
			{ID: "q1", Options: []assessment.Option{{ID: "a", Correct: true}, {ID: "b"}}},
			{ID: "q2", Options: []assessment.Option{{ID: "a"}, {ID: "b", Correct: true}}},
		},
	})

	log := logger.New(logger.Options{Output: discard{}, Level: logger.LevelError})

	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0 // tests fire many requests from one IP

	return NewServer(cfg, Dependencies{
		StartAssessmentHandler:     command.NewStartAssessmentHandler(store, store, log),
		SubmitAssessmentHandler:    command.NewSubmitAssessmentHandler(store, store, log),
		UpdateReadingLevelHandler:  command.NewUpdateReadingLevelHandler(store, log),
		GetCategoryProgressHandler: query.NewGetCategoryProgressHandler(store, log),
		GetProgressionHandler:      query.NewGetProgressionHandler(store, log),
		Logger:                     log,
	})
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var response JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	data, ok := response.Data.(map[string]interface{})
	require.True(t, ok, "response data must be an object: %s", rec.Body.String())
	return data
}

func startPath(assessmentID string) string {
	return fmt.Sprintf("/api/v1/students/%s/assessments/%s/start", httpStudentID, assessmentID)
}

func submitPath(assessmentID string) string {
	return fmt.Sprintf("/api/v1/students/%s/assessments/%s/submit", httpStudentID, assessmentID)
}

func TestStartAndSubmitAssessment(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, startPath("asm-alphabet-knowledge"), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decodeData(t, rec)
	assert.Equal(t, "in_progress", started["status"])

	rec = doRequest(t, server, http.MethodPost, submitPath("asm-alphabet-knowledge"), submitAssessmentRequest{
		Answers: map[string]string{"q1": "a", "q2": "b"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decodeData(t, rec)
	assert.InDelta(t, 100.0, submitted["percentage"].(float64), 1e-9)
	assert.Equal(t, true, submitted["passed"])
}

func TestStartAssessment_ConflictOnDoubleStart(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, startPath("asm-alphabet-knowledge"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, server, http.MethodPost, startPath("asm-alphabet-knowledge"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitAssessment_NotStartedReturns404(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, submitPath("asm-alphabet-knowledge"), submitAssessmentRequest{
		Answers: map[string]string{"q1": "a"},
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitAssessment_EmptyAnswersReturns400(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost, startPath("asm-alphabet-knowledge"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, server, http.MethodPost, submitPath("asm-alphabet-knowledge"), submitAssessmentRequest{
		Answers: map[string]string{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartAssessment_UnknownStudentReturns404(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodPost,
		"/api/v1/students/ghost@example.org/assessments/asm-alphabet-knowledge/start", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateReadingLevel(t *testing.T) {
	server := newTestServer(t)
	path := fmt.Sprintf("/api/v1/students/%s/reading-level", httpStudentID)

	rec := doRequest(t, server, http.MethodPut, path, updateReadingLevelRequest{
		NewLevel: "Developing",
		Reason:   "placement",
		ActorID:  "specialist-2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, "Developing", data["currentLevel"])
	assert.Equal(t, true, data["changed"])

	// Unknown level names are rejected before any write.
	rec = doRequest(t, server, http.MethodPut, path, updateReadingLevelRequest{
		NewLevel: "Stellar",
		Reason:   "typo",
		ActorID:  "specialist-2",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCategoryProgress(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet,
		fmt.Sprintf("/api/v1/students/%s/category-progress", httpStudentID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, float64(6), data["totalCategories"])
	assert.Equal(t, float64(0), data["completedCategories"])
}

func TestGetProgression(t *testing.T) {
	server := newTestServer(t)

	// Identifier precedence: the legacy numeric id resolves to the same
	// student as the UUID path.
	rec := doRequest(t, server, http.MethodGet, "/api/v1/students/777/progression", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeData(t, rec)
	assert.Equal(t, httpStudentID, data["studentId"])
	assert.Equal(t, "Transitioning", data["currentReadingLevel"])
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

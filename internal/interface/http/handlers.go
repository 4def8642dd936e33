package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/readbridge-edu/readbridge-progress/internal/application/command"
	"github.com/readbridge-edu/readbridge-progress/internal/application/query"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/assessment"
	"github.com/readbridge-edu/readbridge-progress/internal/domain/shared"
	"github.com/readbridge-edu/readbridge-progress/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// The domain error taxonomy maps onto HTTP statuses in exactly one
// place. Handlers never inspect errors themselves.
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsInvalidInput(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "readbridge-progress",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.CheckHealth(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int(s.Uptime().Seconds()),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT LIFECYCLE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type startAssessmentResponse struct {
	ResponseID   string    `json:"responseId"`
	StudentID    string    `json:"studentId"`
	AssessmentID string    `json:"assessmentId"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attemptCount"`
	StartedAt    time.Time `json:"startedAt"`
}

func (s *Server) handleStartAssessment(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.StartAssessmentHandler.Handle(r.Context(), command.StartAssessmentCommand{
		RawStudentID: r.PathValue("id"),
		AssessmentID: assessment.ID(r.PathValue("assessmentID")),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, startAssessmentResponse{
		ResponseID:   result.Response.ID,
		StudentID:    result.Response.StudentID,
		AssessmentID: result.Response.AssessmentID.String(),
		Status:       string(result.Response.Status),
		AttemptCount: result.Response.AttemptCount,
		StartedAt:    result.Response.StartedAt,
	})
}

type submitAssessmentRequest struct {
	Answers map[string]string `json:"answers"`
}

type submitAssessmentResponse struct {
	StudentID  string  `json:"studentId"`
	Percentage float64 `json:"percentage"`
	Passed     bool    `json:"passed"`
	Advanced   bool    `json:"advanced"`
	NewLevel   string  `json:"newLevel,omitempty"`
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", "request body must be valid JSON")
		return
	}

	answers := make(assessment.AnswerSet, len(req.Answers))
	for q, o := range req.Answers {
		answers[assessment.QuestionID(q)] = assessment.OptionID(o)
	}

	result, err := s.deps.SubmitAssessmentHandler.Handle(r.Context(), command.SubmitAssessmentCommand{
		RawStudentID: r.PathValue("id"),
		AssessmentID: assessment.ID(r.PathValue("assessmentID")),
		Answers:      answers,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := submitAssessmentResponse{
		StudentID:  result.StudentID,
		Percentage: result.Percentage,
		Passed:     result.Passed,
		Advanced:   result.Advanced,
	}
	if result.Advanced {
		resp.NewLevel = result.NewLevel.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// READING LEVEL & PROGRESS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type updateReadingLevelRequest struct {
	NewLevel string `json:"newLevel"`
	Reason   string `json:"reason"`
	ActorID  string `json:"actorId"`
}

type updateReadingLevelResponse struct {
	StudentID     string `json:"studentId"`
	PreviousLevel string `json:"previousLevel"`
	CurrentLevel  string `json:"currentLevel"`
	Changed       bool   `json:"changed"`
}

func (s *Server) handleUpdateReadingLevel(w http.ResponseWriter, r *http.Request) {
	var req updateReadingLevelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_input", "request body must be valid JSON")
		return
	}

	result, err := s.deps.UpdateReadingLevelHandler.Handle(r.Context(), command.UpdateReadingLevelCommand{
		RawStudentID: r.PathValue("id"),
		NewLevel:     req.NewLevel,
		Reason:       req.Reason,
		ActorID:      req.ActorID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, updateReadingLevelResponse{
		StudentID:     result.StudentID,
		PreviousLevel: result.PreviousLevel.String(),
		CurrentLevel:  result.CurrentLevel.String(),
		Changed:       result.Changed,
	})
}

func (s *Server) handleGetCategoryProgress(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetCategoryProgressHandler.Handle(r.Context(), query.GetCategoryProgressQuery{
		RawStudentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetProgression(w http.ResponseWriter, r *http.Request) {
	result, err := s.deps.GetProgressionHandler.Handle(r.Context(), query.GetProgressionQuery{
		RawStudentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

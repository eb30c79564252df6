package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

// QuestionRequest is one question of a quiz definition.
type QuestionRequest struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer int      `json:"correct_answer" validate:"gte=0"`
}

// QuizRequest is the body of POST /quiz.
type QuizRequest struct {
	JobID     uuid.UUID         `json:"job_id" validate:"required"`
	Questions []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// UpsertQuiz creates or replaces the quiz of a job owned by the caller.
func (h *Handler) UpsertQuiz(w http.ResponseWriter, r *http.Request) {
	var req QuizRequest
	if !h.decode(w, r, &req) {
		return
	}
	for _, q := range req.Questions {
		if q.CorrectAnswer >= len(q.Options) {
			h.Error(w, http.StatusBadRequest, "correct_answer must index one of the options")
			return
		}
	}
	job, ok := h.loadOwnedJob(w, r, req.JobID)
	if !ok {
		return
	}

	quiz := &models.Quiz{
		JobID: job.ID,
		Questions: lo.Map(req.Questions, func(q QuestionRequest, _ int) models.Question {
			return models.Question{Question: q.Question, Options: q.Options, CorrectAnswer: q.CorrectAnswer}
		}),
	}
	if err := h.Store.UpsertQuiz(r.Context(), quiz); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, quiz)
}

// PublicQuiz is a quiz as served to candidates.
type PublicQuiz struct {
	ID        uuid.UUID               `json:"id"`
	JobID     uuid.UUID               `json:"job_id"`
	Questions []models.PublicQuestion `json:"questions"`
}

// GetQuiz returns the quiz of a job. The answer key is only included for the
// job owner and admins.
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	jobID, ok := h.uuidParam(w, r, "jobId")
	if !ok {
		return
	}
	job, err := h.Store.GetJob(r.Context(), jobID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if job == nil {
		h.Error(w, http.StatusNotFound, "Job not found")
		return
	}
	quiz, err := h.Store.GetQuizByJob(r.Context(), jobID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if quiz == nil {
		h.Error(w, http.StatusNotFound, "No quiz for this job")
		return
	}

	if h.selfOrAdmin(r, job.EnterpriseID) {
		h.JSON(w, http.StatusOK, quiz)
		return
	}
	h.JSON(w, http.StatusOK, PublicQuiz{ID: quiz.ID, JobID: quiz.JobID, Questions: quiz.Public()})
}

// SubmitQuizRequest carries the chosen option index per question; -1 skips.
type SubmitQuizRequest struct {
	JobID   uuid.UUID `json:"job_id" validate:"required"`
	Answers []int     `json:"answers"`
}

// SubmitQuiz scores the caller's answers, stores the result and copies the
// score onto their application when it has none yet. Each candidate gets one
// attempt per quiz.
func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var req SubmitQuizRequest
	if !h.decode(w, r, &req) {
		return
	}
	candidateID := h.claims(r).UserID

	quiz, err := h.Store.GetQuizByJob(r.Context(), req.JobID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if quiz == nil {
		h.Error(w, http.StatusNotFound, "No quiz for this job")
		return
	}
	previous, err := h.Store.GetQuizResult(r.Context(), req.JobID, candidateID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if previous != nil {
		h.Error(w, http.StatusConflict, "Quiz already submitted")
		return
	}

	result := &models.QuizResult{
		CandidateID: candidateID,
		JobID:       req.JobID,
		Score:       quiz.Score(req.Answers),
		Total:       len(quiz.Questions),
	}
	if err := h.Store.SaveQuizResult(r.Context(), result); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.Error(w, http.StatusConflict, "Quiz already submitted")
			return
		}
		h.Internal(w, r, err)
		return
	}
	if _, err := h.Store.InitApplicationQuizScore(r.Context(), req.JobID, candidateID, result.Score); err != nil {
		h.Internal(w, r, err)
		return
	}
	metrics.QuizSubmissions.Inc()

	h.JSON(w, http.StatusOK, result)
}

// QuizScoreRequest is the body of PUT /update-quiz-score.
type QuizScoreRequest struct {
	JobID       uuid.UUID `json:"job_id" validate:"required"`
	CandidateID uuid.UUID `json:"candidate_id" validate:"required"`
	Score       *int      `json:"score" validate:"required,gte=0"`
}

// UpdateQuizScore overrides the quiz score on an application. Job owner or admin.
func (h *Handler) UpdateQuizScore(w http.ResponseWriter, r *http.Request) {
	var req QuizScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	if _, ok := h.loadOwnedJob(w, r, req.JobID); !ok {
		return
	}

	updated, err := h.Store.SetApplicationQuizScore(r.Context(), req.JobID, req.CandidateID, *req.Score)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if !updated {
		h.Error(w, http.StatusNotFound, "Application not found")
		return
	}
	h.JSON(w, http.StatusOK, map[string]interface{}{"message": "Quiz score updated", "score": *req.Score})
}

// ListQuizResults returns the scored submissions for a job owned by the caller.
func (h *Handler) ListQuizResults(w http.ResponseWriter, r *http.Request) {
	job, ok := h.ownedJob(w, r, "jobId")
	if !ok {
		return
	}
	results, err := h.Store.ListQuizResultsByJob(r.Context(), job.ID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, results)
}

// ListQuizzes returns the caller's quizzes with job titles and answer keys.
// Admins see every quiz unless they pass ?enterprise_id.
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	enterpriseID, ok := h.enterpriseScope(w, r)
	if !ok {
		return
	}
	quizzes, err := h.Store.ListQuizzes(r.Context(), enterpriseID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, quizzes)
}

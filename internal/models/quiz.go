package models

import (
	"time"

	"github.com/google/uuid"
)

// Question is a single multiple-choice question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// Quiz is the screening questionnaire attached to a job.
type Quiz struct {
	ID        uuid.UUID  `json:"id"`
	JobID     uuid.UUID  `json:"job_id"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"created_at"`
}

// PublicQuestion is a question without its answer key.
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Score counts the answers that match the answer key. answers[i] is the chosen
// option index for question i; missing or negative entries count as unanswered.
func (q *Quiz) Score(answers []int) int {
	score := 0
	for i, question := range q.Questions {
		if i >= len(answers) {
			break
		}
		if answers[i] >= 0 && answers[i] == question.CorrectAnswer {
			score++
		}
	}
	return score
}

// Public returns the questions with the answer key stripped.
func (q *Quiz) Public() []PublicQuestion {
	out := make([]PublicQuestion, len(q.Questions))
	for i, question := range q.Questions {
		out[i] = PublicQuestion{Question: question.Question, Options: question.Options}
	}
	return out
}

// QuizResult records a candidate's scored submission.
type QuizResult struct {
	ID          uuid.UUID `json:"id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	JobID       uuid.UUID `json:"job_id"`
	Score       int       `json:"score"`
	Total       int       `json:"total"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// QuizSummary is a quiz listed with the title of its job.
type QuizSummary struct {
	Quiz
	JobTitle string `json:"job_title"`
}

package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/vocaquiz/vocaquiz-backend/internal/types"
)

type AttemptSummary struct {
	ID             uuid.UUID  `json:"id"`
	Mode           string     `json:"mode"`
	TopicID        *uuid.UUID `json:"topic_id,omitempty"`
	Level          *int       `json:"level,omitempty"`
	Status         string     `json:"status"`
	TotalQuestions int        `json:"total_questions"`
	CorrectAnswers int        `json:"correct_answers"`
	EarnedXP       int        `json:"earned_xp"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func summarizeAttempt(a *types.QuizAttempt) *AttemptSummary {
	return &AttemptSummary{
		ID:             a.ID,
		Mode:           a.Mode,
		TopicID:        a.TopicID,
		Level:          a.Level,
		Status:         a.Status,
		TotalQuestions: a.TotalQuestions,
		CorrectAnswers: a.CorrectAnswers,
		EarnedXP:       a.EarnedXP,
		StartedAt:      a.StartedAt,
		FinishedAt:     a.FinishedAt,
	}
}

type OptionDTO struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
}

type WordHint struct {
	Term          string `json:"term"`
	Pronunciation string `json:"pronunciation,omitempty"`
	MeaningEN     string `json:"meaning_en,omitempty"`
	MeaningVN     string `json:"meaning_vn,omitempty"`
	Example       string `json:"example,omitempty"`
}

// QuestionDTO is what a learner sees mid-attempt: never the correctness
// flags, and the word hint only in study mode.
type QuestionDTO struct {
	QuestionID       uuid.UUID   `json:"question_id"`
	Position         int         `json:"position"`
	Content          string      `json:"content"`
	QuestionType     string      `json:"question_type"`
	Options          []OptionDTO `json:"options"`
	Word             *WordHint   `json:"word,omitempty"`
	Answered         bool        `json:"answered"`
	SelectedOptionID *uuid.UUID  `json:"selected_option_id,omitempty"`
	AnswerText       *string     `json:"answer_text,omitempty"`
	IsCorrect        *bool       `json:"is_correct,omitempty"`
}

type QuestionPage struct {
	AttemptID      uuid.UUID    `json:"attempt_id"`
	Cursor         int          `json:"cursor"`
	TotalQuestions int          `json:"total_questions"`
	CanPrev        bool         `json:"can_prev"`
	CanNext        bool         `json:"can_next"`
	Question       *QuestionDTO `json:"question"`
}

type StartAttemptInput struct {
	Mode    string     `json:"mode"`
	TopicID *uuid.UUID `json:"topic_id,omitempty"`
	Level   *int       `json:"level,omitempty"`
	Size    int        `json:"size,omitempty"`
}

type StartAttemptResult struct {
	Attempt *AttemptSummary `json:"attempt"`
	Page    *QuestionPage   `json:"page"`
}

type SubmitInput struct {
	SelectedOptionID *uuid.UUID `json:"selected_option_id,omitempty"`
	AnswerText       *string    `json:"answer_text,omitempty"`
}

type SubmitResult struct {
	AlreadyAnswered   bool          `json:"already_answered"`
	IsCorrect         bool          `json:"is_correct"`
	CorrectOptionID   *uuid.UUID    `json:"correct_option_id,omitempty"`
	CorrectAnswerText string        `json:"correct_answer_text,omitempty"`
	NextCursor        int           `json:"next_cursor"`
	TotalQuestions    int           `json:"total_questions"`
	Finished          bool          `json:"finished"`
	Next              *QuestionPage `json:"next,omitempty"`
}

type NextBatchResult struct {
	Added          int  `json:"added"`
	TotalQuestions int  `json:"total_questions"`
	Exhausted      bool `json:"exhausted"`
}

type FinishResult struct {
	Attempt     *AttemptSummary    `json:"attempt"`
	Progression *ProgressionResult `json:"progression,omitempty"`
}

type ReviewOption struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	IsCorrect bool      `json:"is_correct"`
}

type ReviewItem struct {
	Position         int            `json:"position"`
	QuestionID       uuid.UUID      `json:"question_id"`
	Content          string         `json:"content"`
	QuestionType     string         `json:"question_type"`
	Options          []ReviewOption `json:"options"`
	SelectedOptionID *uuid.UUID     `json:"selected_option_id,omitempty"`
	AnswerText       *string        `json:"answer_text,omitempty"`
	IsCorrect        *bool          `json:"is_correct,omitempty"`
	Word             *WordHint      `json:"word,omitempty"`
}

type ReviewResult struct {
	Attempt *AttemptSummary `json:"attempt"`
	Items   []ReviewItem    `json:"items"`
}

type HistoryInput struct {
	Mode     string
	TopicID  *uuid.UUID
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type HistoryResult struct {
	Items      []*AttemptSummary `json:"items"`
	Pagination Pagination        `json:"pagination"`
}

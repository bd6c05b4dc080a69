package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/services"
)

type QuizHandler struct {
	log        *logger.Logger
	attemptSvc services.AttemptService
}

func NewQuizHandler(log *logger.Logger, attemptSvc services.AttemptService) *QuizHandler {
	return &QuizHandler{
		log:        log.With("handler", "QuizHandler"),
		attemptSvc: attemptSvc,
	}
}

// POST /api/quiz/attempts
// Start a new attempt and return its first question page.
func (h *QuizHandler) StartAttempt(c *gin.Context) {
	var input services.StartAttemptInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.attemptSvc.Start(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// GET /api/quiz/attempts/:id/questions/:cursor
// Fetch one question page by cursor.
func (h *QuizHandler) GetQuestion(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cursor, ok := pathCursor(c)
	if !ok {
		return
	}
	page, err := h.attemptSvc.GetQuestion(c.Request.Context(), attemptID, cursor)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, page)
}

// POST /api/quiz/attempts/:id/questions/:cursor/submit
// Grade the answer at a cursor. Replays return the original grade.
func (h *QuizHandler) SubmitAnswer(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	cursor, ok := pathCursor(c)
	if !ok {
		return
	}
	var input services.SubmitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	result, err := h.attemptSvc.Submit(c.Request.Context(), attemptID, cursor, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/quiz/attempts/:id/next-batch
// Extend an endless attempt with the next slice of unseen questions.
func (h *QuizHandler) NextBatch(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.attemptSvc.NextBatch(c.Request.Context(), attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/quiz/attempts/:id/finish
// Close the attempt, recompute totals and settle progression.
func (h *QuizHandler) FinishAttempt(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.attemptSvc.Finish(c.Request.Context(), attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/quiz/attempts/:id/abandon
// Close the attempt without any progression effects.
func (h *QuizHandler) AbandonAttempt(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.attemptSvc.Abandon(c.Request.Context(), attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"attempt": summary})
}

// GET /api/quiz/attempts/:id/review
// Full question-by-question breakdown with correct answers revealed.
func (h *QuizHandler) ReviewAttempt(c *gin.Context) {
	attemptID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.attemptSvc.Review(c.Request.Context(), attemptID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/quiz/attempts
// Paginated attempt history for the signed-in learner.
func (h *QuizHandler) AttemptHistory(c *gin.Context) {
	input := services.HistoryInput{
		Mode: c.Query("mode"),
	}
	if raw := c.Query("topic_id"); raw != "" {
		topicID, err := uuid.Parse(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_topic_id", err)
			return
		}
		input.TopicID = &topicID
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_from", err)
			return
		}
		input.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_to", err)
			return
		}
		input.To = &to
	}
	input.Page, _ = strconv.Atoi(c.Query("page"))
	input.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	result, err := h.attemptSvc.History(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("path parameter %s is not a UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

func pathCursor(c *gin.Context) (int, bool) {
	cursor, err := strconv.Atoi(c.Param("cursor"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_cursor", fmt.Errorf("cursor must be an integer"))
		return 0, false
	}
	return cursor, true
}

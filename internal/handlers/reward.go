package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/services"
)

type RewardHandler struct {
	log       *logger.Logger
	rewardSvc services.RewardService
}

func NewRewardHandler(log *logger.Logger, rewardSvc services.RewardService) *RewardHandler {
	return &RewardHandler{
		log:       log.With("handler", "RewardHandler"),
		rewardSvc: rewardSvc,
	}
}

// GET /api/rewards/roadmap
// The reward track with per-entry lock state for the caller.
func (h *RewardHandler) Roadmap(c *gin.Context) {
	input := services.RoadmapInput{
		SourceType: c.Query("source_type"),
		Status:     c.Query("status"),
	}
	input.Page, _ = strconv.Atoi(c.Query("page"))
	input.PageSize, _ = strconv.Atoi(c.Query("page_size"))

	result, err := h.rewardSvc.Roadmap(c.Request.Context(), input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// POST /api/rewards/inbox/:inboxId/claim
// Move an earned reward into the learner's inventory.
func (h *RewardHandler) Claim(c *gin.Context) {
	inboxID, err := uuid.Parse(c.Param("inboxId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_inbox_id", err)
		return
	}
	result, err := h.rewardSvc.Claim(c.Request.Context(), inboxID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

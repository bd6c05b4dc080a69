package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vocaquiz/vocaquiz-backend/internal/platform/logger"
	"github.com/vocaquiz/vocaquiz-backend/internal/requestdata"
	"github.com/vocaquiz/vocaquiz-backend/internal/services"
)

type ProgressionHandler struct {
	log            *logger.Logger
	progressionSvc services.ProgressionService
}

func NewProgressionHandler(log *logger.Logger, progressionSvc services.ProgressionService) *ProgressionHandler {
	return &ProgressionHandler{
		log:            log.With("handler", "ProgressionHandler"),
		progressionSvc: progressionSvc,
	}
}

// GET /api/progression
// XP, streak, rank and lifetime stats for the signed-in learner.
func (h *ProgressionHandler) GetProgression(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || !rd.IsRegistered() {
		RespondError(c, http.StatusUnauthorized, "registered_only", fmt.Errorf("progression requires a registered learner"))
		return
	}
	snapshot, err := h.progressionSvc.Snapshot(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

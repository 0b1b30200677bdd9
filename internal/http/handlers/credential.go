package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/http/response"
	"github.com/yungbote/neurobridge-credentials/internal/modules/certification/coordinator"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
	"github.com/yungbote/neurobridge-credentials/internal/services"
)

// GenerationCoordinator is the slice of the coordinator the HTTP layer drives.
type GenerationCoordinator interface {
	RequestGeneration(ctx context.Context, learnerID, achievementRef uuid.UUID, achievementType types.AchievementType) (*coordinator.Result, error)
	Status() coordinator.Status
	Cleanup() int
}

type CredentialHandler struct {
	log         *logger.Logger
	coordinator GenerationCoordinator
	credentials services.CredentialService
}

func NewCredentialHandler(log *logger.Logger, coord GenerationCoordinator, credentials services.CredentialService) *CredentialHandler {
	return &CredentialHandler{
		log:         log.With("handler", "CredentialHandler"),
		coordinator: coord,
		credentials: credentials,
	}
}

type generateRequest struct {
	AchievementID   string `json:"achievement_id"`
	AchievementType string `json:"achievement_type"`
}

// POST /api/credentials/generate
func (h *CredentialHandler) Generate(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.LearnerID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing learner identity"))
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid json body: %w", err))
		return
	}
	ref, err := uuid.Parse(strings.TrimSpace(req.AchievementID))
	if err != nil || ref == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_achievement_id", errors.New("achievement_id must be a uuid"))
		return
	}
	achievementType, err := types.ParseAchievementType(req.AchievementType)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_achievement_type", err)
		return
	}

	res, err := h.coordinator.RequestGeneration(c.Request.Context(), rd.LearnerID, ref, achievementType)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			response.RespondError(c, http.StatusServiceUnavailable, "request_cancelled", err)
			return
		}
		if !errors.Is(err, apperr.ErrInvalidArgument) {
			h.log.Error("generation request failed", "learner_id", rd.LearnerID.String(), "error", err)
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// GET /api/credentials
func (h *CredentialHandler) ListMine(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.LearnerID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing learner identity"))
		return
	}
	views, err := h.credentials.ListForLearner(c.Request.Context(), rd.LearnerID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"credentials": views})
}

// GET /api/credentials/coordinator/status
func (h *CredentialHandler) CoordinatorStatus(c *gin.Context) {
	response.RespondOK(c, h.coordinator.Status())
}

// POST /api/credentials/coordinator/cleanup
func (h *CredentialHandler) CoordinatorCleanup(c *gin.Context) {
	evicted := h.coordinator.Cleanup()
	response.RespondOK(c, gin.H{"evicted": evicted, "status": h.coordinator.Status()})
}

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-credentials/internal/http/response"
	"github.com/yungbote/neurobridge-credentials/internal/platform/apperr"
	"github.com/yungbote/neurobridge-credentials/internal/services"
)

type VerifyHandler struct {
	verification services.VerificationService
}

func NewVerifyHandler(verification services.VerificationService) *VerifyHandler {
	return &VerifyHandler{verification: verification}
}

// GET /api/public/credentials/:credentialId/verify
func (h *VerifyHandler) Verify(c *gin.Context) {
	id := strings.TrimSpace(c.Param("credentialId"))
	v, err := h.verification.Verify(c.Request.Context(), id)
	switch {
	case err == nil:
		response.RespondOK(c, v)
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrInvalidArgument):
		c.JSON(http.StatusNotFound, gin.H{
			"valid":         false,
			"credential_id": id,
			"error":         response.APIError{Message: "credential not found", Code: "not_found"},
		})
	default:
		response.RespondAPIError(c, err)
	}
}

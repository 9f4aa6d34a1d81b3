package trust

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fundexhq/fundex/pkg/common"
)

// Handler handles HTTP requests for trust scores.
type Handler struct {
	service Service
}

// NewHandler creates a new trust handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the trust routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/organizations/:id/trust-score", h.GetTrustScore)
}

// GetTrustScore returns the organization's trust score, cached for up to 24
// hours. Pass ?refresh=true to force recomputation.
func (h *Handler) GetTrustScore(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid organization id")
		return
	}

	var score *TrustScore
	if c.Query("refresh") == "true" {
		score, err = h.service.ComputeTrustScore(c.Request.Context(), orgID)
	} else {
		score, err = h.service.GetTrustScore(c.Request.Context(), orgID)
	}
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, score)
}

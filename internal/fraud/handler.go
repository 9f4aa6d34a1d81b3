package fraud

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fundexhq/fundex/pkg/common"
	"github.com/fundexhq/fundex/pkg/validation"
)

// Handler handles HTTP requests for expense analysis and review.
type Handler struct {
	service Service
}

// NewHandler creates a new fraud handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the expense routes on the given group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/expenses/analyze", h.AnalyzeReceipt)
	rg.GET("/expenses/:id", h.GetExpense)
	rg.POST("/expenses/:id/approve", h.ApproveExpense)
	rg.POST("/expenses/:id/flag", h.FlagExpense)
	rg.GET("/organizations/:id/expenses", h.ListExpenses)
	rg.GET("/organizations/:id/high-risk-expenses", h.HighRiskReport)
}

// AnalyzeReceipt runs fraud analysis on a submitted receipt.
func (h *Handler) AnalyzeReceipt(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			common.ErrorResponse(c, http.StatusBadRequest, validation.NewValidationError(validationErrs).Error())
			return
		}
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := h.service.AnalyzeReceipt(c.Request.Context(), &req)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, analysis)
}

// GetExpense returns an expense with its analysis results.
func (h *Handler) GetExpense(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid expense id")
		return
	}

	expense, err := h.service.GetExpense(c.Request.Context(), id)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, expense)
}

// ApproveExpense marks an expense as approved.
func (h *Handler) ApproveExpense(c *gin.Context) {
	h.review(c, h.service.ApproveExpense)
}

// FlagExpense marks an expense for investigation.
func (h *Handler) FlagExpense(c *gin.Context) {
	h.review(c, h.service.FlagExpense)
}

func (h *Handler) review(c *gin.Context, decide func(ctx context.Context, id uuid.UUID, note string) (*Expense, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid expense id")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := decide(c.Request.Context(), id, req.Note)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, expense)
}

// ListExpenses returns all expenses recorded for an organization.
func (h *Handler) ListExpenses(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid organization id")
		return
	}

	expenses, err := h.service.ListExpenses(c.Request.Context(), orgID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, gin.H{
		"organization_id": orgID,
		"count":           len(expenses),
		"expenses":        expenses,
	})
}

// HighRiskReport lists high-risk expenses for an organization.
func (h *Handler) HighRiskReport(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid organization id")
		return
	}

	expenses, err := h.service.HighRiskReport(c.Request.Context(), orgID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.SuccessResponse(c, gin.H{
		"organization_id": orgID,
		"threshold":       HighRiskScoreThreshold,
		"count":           len(expenses),
		"expenses":        expenses,
	})
}

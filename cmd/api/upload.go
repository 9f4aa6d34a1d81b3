package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fundexhq/fundex/pkg/common"
	"github.com/fundexhq/fundex/pkg/logger"
	"github.com/fundexhq/fundex/pkg/storage"
)

const maxReceiptSize = 10 << 20 // 10 MB

type uploadHandler struct {
	store storage.Storage
}

func newUploadHandler(store storage.Storage) *uploadHandler {
	return &uploadHandler{store: store}
}

// UploadReceipt stores a receipt image and returns its public URL for use in
// analysis requests.
func (h *uploadHandler) UploadReceipt(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid organization id")
		return
	}
	expenseID, err := uuid.Parse(c.Param("expense_id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid expense id")
		return
	}

	file, header, err := c.Request.FormFile("receipt")
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "receipt file is required")
		return
	}
	defer file.Close()

	if header.Size > maxReceiptSize {
		common.ErrorResponse(c, http.StatusBadRequest, "receipt file too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !storage.IsImageMimeType(contentType) && contentType != "application/pdf" {
		common.ErrorResponse(c, http.StatusBadRequest, "receipt must be an image or PDF")
		return
	}

	key := storage.GenerateReceiptKey(orgID, expenseID, header.Filename)
	result, err := h.store.Upload(c.Request.Context(), key, file, header.Size, contentType)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("receipt upload failed",
			zap.String("key", key),
			zap.Error(err))
		common.AbortWithError(c, common.NewInternalServerError("failed to store receipt", err))
		return
	}

	common.CreatedResponse(c, result)
}

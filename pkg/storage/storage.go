package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Config holds storage configuration
type Config struct {
	Provider     string   `json:"provider"`
	Bucket       string   `json:"bucket"`
	Region       string   `json:"region"`
	Endpoint     string   `json:"endpoint"` // For S3-compatible storage
	AccessKey    string   `json:"access_key"`
	SecretKey    string   `json:"secret_key"`
	BaseURL      string   `json:"base_url"` // Public URL prefix
	AllowedTypes []string `json:"allowed_types"`
}

// UploadResult contains the result of an upload operation
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Storage is the receipt/proof image store collaborator. The analysis core only
// consumes addressable URLs; upload and deletion live behind this interface.
type Storage interface {
	// Upload uploads a file to storage
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)

	// Download downloads a file from storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes a file from storage
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a file
	GetURL(key string) string

	// Exists checks if a file exists
	Exists(ctx context.Context, key string) (bool, error)
}

// GenerateReceiptKey generates a unique storage key for an expense receipt image.
func GenerateReceiptKey(orgID, expenseID uuid.UUID, filename string) string {
	ext := path.Ext(filename)
	uniqueID := uuid.New().String()[:8]
	timestamp := time.Now().Format("20060102")

	return fmt.Sprintf("organizations/%s/expenses/%s/receipts/%s_%s%s",
		orgID.String(),
		expenseID.String(),
		timestamp,
		uniqueID,
		ext,
	)
}

// GenerateProofKey generates a unique storage key for a proof-of-work image.
func GenerateProofKey(orgID, expenseID uuid.UUID, filename string) string {
	ext := path.Ext(filename)
	uniqueID := uuid.New().String()[:8]

	return fmt.Sprintf("organizations/%s/expenses/%s/proofs/%s%s",
		orgID.String(),
		expenseID.String(),
		uniqueID,
		ext,
	)
}

// ValidateMimeType checks if the mime type is allowed
func ValidateMimeType(mimeType string, allowedTypes []string) bool {
	if len(allowedTypes) == 0 {
		return true
	}

	mimeType = strings.ToLower(mimeType)
	for _, allowed := range allowedTypes {
		if strings.ToLower(allowed) == mimeType {
			return true
		}
		if strings.HasSuffix(allowed, "/*") {
			prefix := strings.TrimSuffix(allowed, "*")
			if strings.HasPrefix(mimeType, prefix) {
				return true
			}
		}
	}
	return false
}

// IsImageMimeType checks if the mime type is an image
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}

package gst

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fundexhq/fundex/internal/receipt"
	"github.com/fundexhq/fundex/pkg/logger"
)

// Validator checks GSTINs in two stages: local format validation, then an
// optional registry lookup. The registry is advisory only.
type Validator struct {
	registry RegistryClient
}

// NewValidator builds a validator. A nil registry client skips lookups
// entirely; IDs then validate on format alone.
func NewValidator(registry RegistryClient) *Validator {
	return &Validator{registry: registry}
}

// Validate checks taxID. Format failures are terminal and skip the registry.
// Registry misses and registry failures both leave Valid true with
// APIVerified false: a flaky external service must not flag honest receipts.
func (v *Validator) Validate(ctx context.Context, taxID string) *Validation {
	taxID = strings.ToUpper(strings.TrimSpace(taxID))
	result := &Validation{TaxID: taxID}

	if !receipt.ValidGSTINShape(taxID) {
		return result
	}
	result.FormatValid = true
	result.Valid = true

	if v.registry == nil {
		return result
	}

	record, err := v.registry.Lookup(ctx, taxID)
	switch {
	case err == nil:
		result.APIVerified = true
		result.BusinessName = record.BusinessName
		result.Status = record.Status
	case errors.Is(err, ErrNotRegistered):
		logger.WithContext(ctx).Info("tax id not found in registry",
			zap.String("tax_id", taxID))
	default:
		logger.WithContext(ctx).Warn("registry lookup failed, keeping format-only validation",
			zap.String("tax_id", taxID),
			zap.Error(err))
	}

	return result
}

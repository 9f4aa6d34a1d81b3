package fraud

import (
	"context"

	"github.com/google/uuid"

	"github.com/fundexhq/fundex/internal/gst"
	"github.com/fundexhq/fundex/internal/receipt"
)

// TextExtractor pulls raw text from a receipt image.
type TextExtractor interface {
	Extract(ctx context.Context, imageURL string) (string, bool)
}

// AmountExtractor locates the payable total in receipt text.
type AmountExtractor interface {
	ExtractAmount(text string) *receipt.AmountCandidate
}

// TaxIDExtractor locates a tax ID in receipt text.
type TaxIDExtractor interface {
	ExtractTaxID(text string) (string, bool)
}

// TaxIDValidator checks a tax ID against format rules and the registry.
type TaxIDValidator interface {
	Validate(ctx context.Context, taxID string) *gst.Validation
}

// Repository persists expenses and their analysis results.
type Repository interface {
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	SaveAnalysis(ctx context.Context, expenseID uuid.UUID, analysis *FraudAnalysis, ocrText string) error
	UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus, note string) error
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Expense, error)
	HighRiskByOrganization(ctx context.Context, orgID uuid.UUID, threshold int) ([]Expense, error)
}

// Service runs receipt analysis and expense review.
type Service interface {
	AnalyzeReceipt(ctx context.Context, req *AnalyzeRequest) (*FraudAnalysis, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ApproveExpense(ctx context.Context, id uuid.UUID, note string) (*Expense, error)
	FlagExpense(ctx context.Context, id uuid.UUID, note string) (*Expense, error)
	ListExpenses(ctx context.Context, orgID uuid.UUID) ([]Expense, error)
	HighRiskReport(ctx context.Context, orgID uuid.UUID) ([]Expense, error)
}

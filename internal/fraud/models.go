package fraud

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RiskLevel buckets a fraud score into one of five bands.
type RiskLevel string

const (
	RiskMinimal  RiskLevel = "MINIMAL"
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// VerificationStatus is the admin-facing lifecycle of an expense.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationApproved VerificationStatus = "approved"
	VerificationFlagged  VerificationStatus = "flagged"
	VerificationRejected VerificationStatus = "rejected"
)

// Expense is a spend record submitted by an organization with its receipt
// analysis results.
type Expense struct {
	ID                 uuid.UUID          `json:"id"`
	OrganizationID     uuid.UUID          `json:"organization_id"`
	FundRequestID      *uuid.UUID         `json:"fund_request_id,omitempty"`
	Description        string             `json:"description"`
	ClaimedAmount      decimal.Decimal    `json:"claimed_amount"`
	DetectedAmount     *decimal.Decimal   `json:"detected_amount,omitempty"`
	ReceiptURL         string             `json:"receipt_url"`
	OCRText            string             `json:"-"`
	TaxID              string             `json:"tax_id,omitempty"`
	TaxIDValid         bool               `json:"tax_id_valid"`
	TaxIDVerified      bool               `json:"tax_id_verified"`
	FraudScore         int                `json:"fraud_score"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	FraudFlags         []string           `json:"fraud_flags"`
	Recommendation     string             `json:"recommendation"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// FraudAnalysis is the outcome of analyzing one receipt.
type FraudAnalysis struct {
	Score            int              `json:"score"`
	RiskLevel        RiskLevel        `json:"risk_level"`
	Flags            []string         `json:"flags"`
	Recommendation   string           `json:"recommendation"`
	DetectedAmount   *decimal.Decimal `json:"detected_amount,omitempty"`
	AmountConfidence int              `json:"amount_confidence,omitempty"`
	AmountSource     string           `json:"amount_source,omitempty"`
	TaxID            string           `json:"tax_id,omitempty"`
	TaxIDValid       bool             `json:"tax_id_valid"`
	TaxIDVerified    bool             `json:"tax_id_verified"`
	AnalyzedAt       time.Time        `json:"analyzed_at"`
}

// AnalyzeRequest is the payload for receipt analysis. ExpenseID is optional:
// when present the analysis is persisted onto the expense record.
type AnalyzeRequest struct {
	ExpenseID       *uuid.UUID       `json:"expense_id"`
	ImageURL        string           `json:"image_url" binding:"required,url"`
	ClaimedAmount   decimal.Decimal  `json:"claimed_amount"`
	RemainingBudget *decimal.Decimal `json:"remaining_budget"`
	PriorSpend      decimal.Decimal  `json:"prior_spend"`
}

// ReviewRequest carries an admin approve/flag decision.
type ReviewRequest struct {
	Note string `json:"note" binding:"max=500"`
}

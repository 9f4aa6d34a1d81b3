package trust

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Component point budgets. The four components sum to 100.
const (
	FraudComponentMax           = 40
	UtilizationComponentMax     = 30
	TransparencyComponentMax    = 20
	DonorConfidenceComponentMax = 10
)

// TrustScore is the public trust rating for an organization.
type TrustScore struct {
	OrganizationID uuid.UUID   `json:"organization_id"`
	Score          int         `json:"score"`
	Breakdown      Breakdown   `json:"breakdown"`
	FundMetrics    FundMetrics `json:"fund_metrics"`
	CalculatedAt   time.Time   `json:"calculated_at"`
}

// Breakdown shows how each component contributed to the total, with the
// underlying ratios for donor-facing display.
type Breakdown struct {
	FraudComponent           int     `json:"fraud_component"`
	UtilizationComponent     int     `json:"utilization_component"`
	TransparencyComponent    int     `json:"transparency_component"`
	DonorConfidenceComponent int     `json:"donor_confidence_component"`
	AvgFraudScore            float64 `json:"avg_fraud_score"`
	HighRiskExpenseCount     int     `json:"high_risk_expense_count"`
	UtilizationPercent       float64 `json:"utilization_percent"`
	ApprovedExpenseRatio     float64 `json:"approved_expense_ratio"`
	ResolvedRequestRatio     float64 `json:"resolved_request_ratio"`
	CampaignSuccessRate      float64 `json:"campaign_success_rate"`
	AvgCampaignProgress      float64 `json:"avg_campaign_progress"`
}

// FundMetrics summarizes the organization's money flow. UtilizationPercentage
// here is spend relative to everything raised; the breakdown's utilization
// ratio is spend relative to the approved allocation.
type FundMetrics struct {
	TotalRaised           decimal.Decimal `json:"total_raised"`
	TotalAllocated        decimal.Decimal `json:"total_allocated"`
	TotalSpent            decimal.Decimal `json:"total_spent"`
	AvailableFunds        decimal.Decimal `json:"available_funds"`
	UtilizationPercentage float64         `json:"utilization_percentage"`
	DonorCount            int             `json:"donor_count"`
	ExpenseCount          int             `json:"expense_count"`
	CampaignCount         int             `json:"campaign_count"`
	CampaignsByStatus     map[string]int  `json:"campaigns_by_status"`
}

// ExpenseRecord is the slice of an expense the aggregator needs.
type ExpenseRecord struct {
	Amount     decimal.Decimal
	FraudScore int
	Status     string
}

// FundRequestRecord is a fund allocation request.
type FundRequestRecord struct {
	Amount decimal.Decimal
	Status string
}

// CampaignRecord is a fundraising campaign.
type CampaignRecord struct {
	TargetAmount decimal.Decimal
	RaisedAmount decimal.Decimal
	Status       string
}

// DonationStats aggregates an organization's donations.
type DonationStats struct {
	Total      decimal.Decimal
	DonorCount int
}

// Expense and request statuses the aggregator interprets.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

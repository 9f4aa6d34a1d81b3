package trust

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads the records the aggregator scores and persists computed
// snapshots back onto the organization.
type Repository interface {
	ExpensesByOrganization(ctx context.Context, orgID uuid.UUID) ([]ExpenseRecord, error)
	FundRequestsByOrganization(ctx context.Context, orgID uuid.UUID) ([]FundRequestRecord, error)
	CampaignsByOrganization(ctx context.Context, orgID uuid.UUID) ([]CampaignRecord, error)
	DonationStatsByOrganization(ctx context.Context, orgID uuid.UUID) (*DonationStats, error)
	SaveTrustSnapshot(ctx context.Context, orgID uuid.UUID, score *TrustScore) error
}

// Service computes and serves organization trust scores.
type Service interface {
	GetTrustScore(ctx context.Context, orgID uuid.UUID) (*TrustScore, error)
	ComputeTrustScore(ctx context.Context, orgID uuid.UUID) (*TrustScore, error)
}

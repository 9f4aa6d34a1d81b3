package trust

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed trust data repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ExpensesByOrganization(ctx context.Context, orgID uuid.UUID) ([]ExpenseRecord, error) {
	query := `
		SELECT claimed_amount, fraud_score, verification_status
		FROM expenses
		WHERE organization_id = $1`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	defer rows.Close()

	var records []ExpenseRecord
	for rows.Next() {
		var rec ExpenseRecord
		if err := rows.Scan(&rec.Amount, &rec.FraudScore, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *postgresRepository) FundRequestsByOrganization(ctx context.Context, orgID uuid.UUID) ([]FundRequestRecord, error) {
	query := `
		SELECT amount, status
		FROM fund_requests
		WHERE organization_id = $1`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fund requests: %w", err)
	}
	defer rows.Close()

	var records []FundRequestRecord
	for rows.Next() {
		var rec FundRequestRecord
		if err := rows.Scan(&rec.Amount, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *postgresRepository) CampaignsByOrganization(ctx context.Context, orgID uuid.UUID) ([]CampaignRecord, error) {
	query := `
		SELECT target_amount, raised_amount, status
		FROM campaigns
		WHERE organization_id = $1`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}
	defer rows.Close()

	var records []CampaignRecord
	for rows.Next() {
		var rec CampaignRecord
		if err := rows.Scan(&rec.TargetAmount, &rec.RaisedAmount, &rec.Status); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *postgresRepository) DonationStatsByOrganization(ctx context.Context, orgID uuid.UUID) (*DonationStats, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0), COUNT(DISTINCT donor_id)
		FROM donations
		WHERE organization_id = $1`

	var stats DonationStats
	if err := r.db.QueryRow(ctx, query, orgID).Scan(&stats.Total, &stats.DonorCount); err != nil {
		return nil, fmt.Errorf("failed to load donation stats: %w", err)
	}
	return &stats, nil
}

func (r *postgresRepository) SaveTrustSnapshot(ctx context.Context, orgID uuid.UUID, score *TrustScore) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to encode breakdown: %w", err)
	}

	query := `
		UPDATE organizations
		SET trust_score = $2,
		    trust_breakdown = $3,
		    trust_calculated_at = $4
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, orgID, score.Score, breakdown, score.CalculatedAt); err != nil {
		return fmt.Errorf("failed to save trust snapshot: %w", err)
	}
	return nil
}

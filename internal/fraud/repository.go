package fraud

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed expense repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

const expenseColumns = `
	id, organization_id, fund_request_id, description, claimed_amount,
	detected_amount, receipt_url, ocr_text, tax_id, tax_id_valid,
	tax_id_verified, fraud_score, risk_level, fraud_flags, recommendation,
	verification_status, created_at, updated_at`

func (r *postgresRepository) GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error) {
	query := `SELECT` + expenseColumns + ` FROM expenses WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	expense, err := scanExpense(row)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (r *postgresRepository) SaveAnalysis(ctx context.Context, expenseID uuid.UUID, analysis *FraudAnalysis, ocrText string) error {
	query := `
		UPDATE expenses
		SET detected_amount = $2,
		    ocr_text = $3,
		    tax_id = $4,
		    tax_id_valid = $5,
		    tax_id_verified = $6,
		    fraud_score = $7,
		    risk_level = $8,
		    fraud_flags = $9,
		    recommendation = $10,
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		expenseID,
		analysis.DetectedAmount,
		ocrText,
		analysis.TaxID,
		analysis.TaxIDValid,
		analysis.TaxIDVerified,
		analysis.Score,
		string(analysis.RiskLevel),
		analysis.Flags,
		analysis.Recommendation,
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postgresRepository) UpdateVerificationStatus(ctx context.Context, id uuid.UUID, status VerificationStatus, note string) error {
	query := `
		UPDATE expenses
		SET verification_status = $2,
		    review_note = $3,
		    updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status), note)
	if err != nil {
		return fmt.Errorf("failed to update verification status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *postgresRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]Expense, error) {
	query := `SELECT` + expenseColumns + `
		FROM expenses
		WHERE organization_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

func (r *postgresRepository) HighRiskByOrganization(ctx context.Context, orgID uuid.UUID, threshold int) ([]Expense, error) {
	query := `SELECT` + expenseColumns + `
		FROM expenses
		WHERE organization_id = $1 AND fraud_score >= $2
		ORDER BY fraud_score DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, orgID, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to list high risk expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

func scanExpenses(rows pgx.Rows) ([]Expense, error) {
	var expenses []Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expenses: %w", err)
	}
	return expenses, nil
}

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(
		&e.ID, &e.OrganizationID, &e.FundRequestID, &e.Description,
		&e.ClaimedAmount, &e.DetectedAmount, &e.ReceiptURL, &e.OCRText,
		&e.TaxID, &e.TaxIDValid, &e.TaxIDVerified, &e.FraudScore,
		&e.RiskLevel, &e.FraudFlags, &e.Recommendation,
		&e.VerificationStatus, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

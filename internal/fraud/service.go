package fraud

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fundexhq/fundex/pkg/common"
	"github.com/fundexhq/fundex/pkg/logger"
)

var analysesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fundex_fraud_analyses_total",
		Help: "Receipt analyses performed, labeled by resulting risk level",
	},
	[]string{"risk_level"},
)

type analysisService struct {
	repo      Repository
	text      TextExtractor
	amounts   AmountExtractor
	taxIDs    TaxIDExtractor
	validator TaxIDValidator
	scorer    *Scorer
}

// NewService wires the receipt analysis pipeline.
func NewService(repo Repository, text TextExtractor, amounts AmountExtractor, taxIDs TaxIDExtractor, validator TaxIDValidator) Service {
	return &analysisService{
		repo:      repo,
		text:      text,
		amounts:   amounts,
		taxIDs:    taxIDs,
		validator: validator,
		scorer:    NewScorer(),
	}
}

// AnalyzeReceipt runs the full pipeline: OCR, amount and tax-ID extraction,
// registry validation, scoring, then persistence when an expense is attached.
// OCR failure degrades the analysis instead of aborting it.
func (s *analysisService) AnalyzeReceipt(ctx context.Context, req *AnalyzeRequest) (*FraudAnalysis, error) {
	if req.ImageURL == "" {
		return nil, common.NewBadRequestError("image reference is required", nil)
	}
	if req.ClaimedAmount.IsNegative() {
		return nil, common.NewBadRequestError("claimed amount cannot be negative", nil)
	}

	text, extracted := s.text.Extract(ctx, req.ImageURL)

	input := ScoreInput{
		ClaimedAmount:   req.ClaimedAmount,
		OCRText:         text,
		TextExtracted:   extracted,
		RemainingBudget: req.RemainingBudget,
		PriorSpend:      req.PriorSpend,
	}

	if extracted {
		input.DetectedAmount = s.amounts.ExtractAmount(text)
		if taxID, found := s.taxIDs.ExtractTaxID(text); found {
			input.TaxIDValidation = s.validator.Validate(ctx, taxID)
		}
	}

	analysis := s.scorer.Score(input)
	analysesTotal.WithLabelValues(string(analysis.RiskLevel)).Inc()

	logger.WithContext(ctx).Info("receipt analyzed",
		zap.Int("fraud_score", analysis.Score),
		zap.String("risk_level", string(analysis.RiskLevel)),
		zap.Int("flag_count", len(analysis.Flags)))

	if req.ExpenseID != nil {
		if err := s.repo.SaveAnalysis(ctx, *req.ExpenseID, &analysis, text); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, common.NewNotFoundError("expense not found", err)
			}
			logger.WithContext(ctx).Error("failed to persist analysis",
				zap.String("expense_id", req.ExpenseID.String()),
				zap.Error(err))
			return nil, common.NewInternalServerError("failed to persist analysis", err)
		}
	}

	return &analysis, nil
}

func (s *analysisService) GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error) {
	expense, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.NewNotFoundError("expense not found", err)
		}
		return nil, common.NewInternalServerError("failed to load expense", err)
	}
	return expense, nil
}

// ApproveExpense marks an expense approved. Rejected expenses stay rejected.
func (s *analysisService) ApproveExpense(ctx context.Context, id uuid.UUID, note string) (*Expense, error) {
	return s.review(ctx, id, VerificationApproved, note)
}

// FlagExpense marks an expense for investigation.
func (s *analysisService) FlagExpense(ctx context.Context, id uuid.UUID, note string) (*Expense, error) {
	return s.review(ctx, id, VerificationFlagged, note)
}

func (s *analysisService) review(ctx context.Context, id uuid.UUID, status VerificationStatus, note string) (*Expense, error) {
	expense, err := s.GetExpense(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.VerificationStatus == VerificationRejected {
		return nil, common.NewBadRequestError("rejected expenses cannot be reviewed", nil)
	}

	if err := s.repo.UpdateVerificationStatus(ctx, id, status, note); err != nil {
		return nil, common.NewInternalServerError("failed to update expense status", err)
	}

	logger.WithContext(ctx).Info("expense reviewed",
		zap.String("expense_id", id.String()),
		zap.String("status", string(status)))

	expense.VerificationStatus = status
	return expense, nil
}

// ListExpenses returns an organization's expenses with their analysis fields.
func (s *analysisService) ListExpenses(ctx context.Context, orgID uuid.UUID) ([]Expense, error) {
	expenses, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load expenses", err)
	}
	return expenses, nil
}

// HighRiskReport lists an organization's expenses at or above the high-risk
// score threshold.
func (s *analysisService) HighRiskReport(ctx context.Context, orgID uuid.UUID) ([]Expense, error) {
	expenses, err := s.repo.HighRiskByOrganization(ctx, orgID, HighRiskScoreThreshold)
	if err != nil {
		return nil, common.NewInternalServerError("failed to load high risk expenses", err)
	}
	return expenses, nil
}

package fraud

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fundexhq/fundex/internal/gst"
	"github.com/fundexhq/fundex/internal/receipt"
)

// Penalty points added per fraud signal. An invalid tax ID is worse than a
// missing one: forging an ID is active deception, omitting one is sloppiness.
const (
	PenaltyUnreadableText  = 10
	PenaltyNoAmount        = 25
	PenaltyTaxIDMissing    = 10
	PenaltyTaxIDInvalid    = 20
	PenaltyOverBudget      = 20
	maxMismatchPenalty     = 40
	baseMismatchPenalty    = 15
	minReadableTextLength  = 30
	mismatchTolerancePct   = 2
	HighRiskScoreThreshold = 60
)

// ScoreInput gathers the evidence from receipt analysis for one expense.
type ScoreInput struct {
	ClaimedAmount   decimal.Decimal
	DetectedAmount  *receipt.AmountCandidate
	TaxIDValidation *gst.Validation // nil when no tax ID was found
	OCRText         string
	TextExtracted   bool
	RemainingBudget *decimal.Decimal // nil when no budget applies
	PriorSpend      decimal.Decimal
}

// Scorer turns analysis evidence into a fraud score. Scoring is purely
// additive: each signal contributes a fixed or proportional penalty and the
// sum is clamped to [0, 100], so adding evidence never lowers the score.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the fraud analysis for the given evidence.
func (s *Scorer) Score(input ScoreInput) FraudAnalysis {
	score := 0
	var flags []string

	if !input.TextExtracted || len(strings.TrimSpace(input.OCRText)) < minReadableTextLength {
		score += PenaltyUnreadableText
		flags = append(flags, "receipt text unreadable or too short")
	}

	analysis := FraudAnalysis{AnalyzedAt: time.Now()}

	if input.DetectedAmount == nil {
		score += PenaltyNoAmount
		flags = append(flags, "no amount detected on receipt")
	} else {
		value := input.DetectedAmount.Value
		analysis.DetectedAmount = &value
		analysis.AmountConfidence = input.DetectedAmount.Confidence
		analysis.AmountSource = input.DetectedAmount.Source

		if penalty, ok := mismatchPenalty(input.ClaimedAmount, value); ok {
			score += penalty
			flags = append(flags, fmt.Sprintf(
				"claimed amount %s does not match receipt amount %s",
				input.ClaimedAmount.StringFixed(2), value.StringFixed(2)))
		}
	}

	switch {
	case input.TaxIDValidation == nil:
		score += PenaltyTaxIDMissing
		flags = append(flags, "no tax id found on receipt")
	case !input.TaxIDValidation.Valid:
		score += PenaltyTaxIDInvalid
		flags = append(flags, "tax id failed format validation")
	default:
		analysis.TaxID = input.TaxIDValidation.TaxID
		analysis.TaxIDValid = true
		analysis.TaxIDVerified = input.TaxIDValidation.APIVerified
	}

	if input.RemainingBudget != nil &&
		input.ClaimedAmount.Add(input.PriorSpend).GreaterThan(*input.RemainingBudget) {
		score += PenaltyOverBudget
		flags = append(flags, "cumulative spend exceeds remaining approved budget")
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}

	analysis.Score = score
	analysis.RiskLevel = RiskLevelFor(score)
	analysis.Recommendation = recommendationFor(analysis.RiskLevel)
	analysis.Flags = flags
	return analysis
}

// mismatchPenalty compares claimed and detected amounts. Differences within
// the tolerance window (2% of the claimed amount, at least one currency unit)
// are treated as rounding noise. Beyond it, the penalty grows with the
// relative discrepancy.
func mismatchPenalty(claimed, detected decimal.Decimal) (int, bool) {
	diff := claimed.Sub(detected).Abs()

	tolerance := claimed.Mul(decimal.NewFromInt(mismatchTolerancePct)).Div(decimal.NewFromInt(100))
	one := decimal.NewFromInt(1)
	if tolerance.LessThan(one) {
		tolerance = one
	}
	if diff.LessThanOrEqual(tolerance) {
		return 0, false
	}

	larger := claimed
	if detected.GreaterThan(larger) {
		larger = detected
	}

	ratio, _ := diff.Div(larger).Float64()
	penalty := baseMismatchPenalty + int(ratio*50+0.5)
	if penalty > maxMismatchPenalty {
		penalty = maxMismatchPenalty
	}
	return penalty, true
}

// RiskLevelFor maps a clamped score onto its band.
func RiskLevelFor(score int) RiskLevel {
	switch {
	case score < 20:
		return RiskMinimal
	case score < 40:
		return RiskLow
	case score < 60:
		return RiskMedium
	case score < 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// recommendationFor derives the handling advice from the risk band alone.
func recommendationFor(level RiskLevel) string {
	switch level {
	case RiskMinimal:
		return "approve"
	case RiskLow:
		return "approve_with_note"
	case RiskMedium:
		return "manual_review"
	case RiskHigh:
		return "investigate"
	default:
		return "reject"
	}
}

package trust

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fundexhq/fundex/pkg/cache"
	"github.com/fundexhq/fundex/pkg/common"
	"github.com/fundexhq/fundex/pkg/logger"
)

const (
	cacheKeyPrefix  = "trust_score:"
	persistTimeout  = 10 * time.Second
	defaultCacheTTL = 24 * time.Hour
)

var (
	cacheReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundex_trust_cache_reads_total",
			Help: "Trust score cache reads by outcome",
		},
		[]string{"outcome"},
	)
	computeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fundex_trust_compute_duration_seconds",
			Help:    "Time spent computing trust scores",
			Buckets: prometheus.DefBuckets,
		},
	)
)

type scoreService struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewService builds the trust score service. The cache backing store is
// injected; ttl <= 0 falls back to 24 hours.
func NewService(repo Repository, store cache.Cache, ttl time.Duration) Service {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &scoreService{
		repo:  repo,
		cache: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// GetTrustScore serves the cached score while it is fresh and lazily
// recomputes once it expires. If recomputation fails, a stale cached score is
// better than no answer; the error propagates only when no cache exists.
func (s *scoreService) GetTrustScore(ctx context.Context, orgID uuid.UUID) (*TrustScore, error) {
	key := cacheKeyPrefix + orgID.String()

	entry, cacheErr := s.cache.Get(ctx, key)
	if cacheErr == nil && entry.Age(s.now()) < s.ttl {
		if score, err := decodeScore(entry.Value); err == nil {
			cacheReads.WithLabelValues("hit").Inc()
			return score, nil
		}
	}
	cacheReads.WithLabelValues("miss").Inc()

	fresh, err := s.ComputeTrustScore(ctx, orgID)
	if err != nil {
		if cacheErr == nil {
			if stale, decodeErr := decodeScore(entry.Value); decodeErr == nil {
				cacheReads.WithLabelValues("stale_fallback").Inc()
				logger.WithContext(ctx).Warn("trust score recompute failed, serving stale cache",
					zap.String("organization_id", orgID.String()),
					zap.Duration("age", entry.Age(s.now())),
					zap.Error(err))
				return stale, nil
			}
		}
		return nil, err
	}

	s.persistAsync(ctx, key, orgID, fresh)
	return fresh, nil
}

// persistAsync writes the refreshed score to the cache and the organization
// record without blocking the caller. Failures are logged and isolated: a
// broken write-back must never surface to the read path.
func (s *scoreService) persistAsync(ctx context.Context, key string, orgID uuid.UUID, score *TrustScore) {
	log := logger.WithContext(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("trust score write-back panicked",
					zap.String("organization_id", orgID.String()),
					zap.Any("panic", r))
			}
		}()

		persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		encoded, err := json.Marshal(score)
		if err != nil {
			log.Error("failed to encode trust score", zap.Error(err))
			return
		}
		if err := s.cache.Set(persistCtx, key, encoded); err != nil {
			log.Warn("failed to cache trust score",
				zap.String("organization_id", orgID.String()),
				zap.Error(err))
		}
		if err := s.repo.SaveTrustSnapshot(persistCtx, orgID, score); err != nil {
			log.Warn("failed to persist trust snapshot",
				zap.String("organization_id", orgID.String()),
				zap.Error(err))
		}
	}()
}

// ComputeTrustScore recalculates the score from source records, reading the
// four collections concurrently.
func (s *scoreService) ComputeTrustScore(ctx context.Context, orgID uuid.UUID) (*TrustScore, error) {
	start := s.now()

	var (
		expenses  []ExpenseRecord
		requests  []FundRequestRecord
		campaigns []CampaignRecord
		donations *DonationStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = s.repo.ExpensesByOrganization(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		requests, err = s.repo.FundRequestsByOrganization(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		campaigns, err = s.repo.CampaignsByOrganization(gctx, orgID)
		return err
	})
	g.Go(func() error {
		var err error
		donations, err = s.repo.DonationStatsByOrganization(gctx, orgID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, common.NewInternalServerError("failed to load organization records", err)
	}

	breakdown := Breakdown{}
	breakdown.FraudComponent, breakdown.AvgFraudScore, breakdown.HighRiskExpenseCount = fraudComponent(expenses)
	breakdown.UtilizationComponent, breakdown.UtilizationPercent = utilizationComponent(requests, expenses)
	breakdown.TransparencyComponent, breakdown.ApprovedExpenseRatio, breakdown.ResolvedRequestRatio = transparencyComponent(expenses, requests)
	breakdown.DonorConfidenceComponent, breakdown.CampaignSuccessRate, breakdown.AvgCampaignProgress = donorConfidenceComponent(campaigns)

	total := breakdown.FraudComponent +
		breakdown.UtilizationComponent +
		breakdown.TransparencyComponent +
		breakdown.DonorConfidenceComponent
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}

	score := &TrustScore{
		OrganizationID: orgID,
		Score:          total,
		Breakdown:      breakdown,
		FundMetrics:    fundMetrics(expenses, requests, campaigns, donations),
		CalculatedAt:   s.now(),
	}

	computeDuration.Observe(s.now().Sub(start).Seconds())
	return score, nil
}

// fraudComponent awards up to 40 points, scaled down by the mean fraud score
// of the organization's expenses. No expenses means no fraud evidence, which
// earns full points.
func fraudComponent(expenses []ExpenseRecord) (points int, avgScore float64, highRisk int) {
	if len(expenses) == 0 {
		return FraudComponentMax, 0, 0
	}

	sum := 0
	for _, e := range expenses {
		sum += e.FraudScore
		if e.FraudScore >= 60 {
			highRisk++
		}
	}
	avgScore = float64(sum) / float64(len(expenses))
	points = int(math.Round(FraudComponentMax * (1 - avgScore/100)))
	return points, avgScore, highRisk
}

// utilizationComponent awards up to 30 points based on how much of the
// allocated budget was actually spent. Only approved expenses count as spend;
// pending and flagged submissions are not yet money out the door. The 80-95%
// window is ideal: lower suggests hoarding, higher leaves no reserve, and
// overshooting means spending money that was never approved.
func utilizationComponent(requests []FundRequestRecord, expenses []ExpenseRecord) (int, float64) {
	allocated := decimal.Zero
	for _, r := range requests {
		if r.Status == StatusApproved || r.Status == StatusCompleted {
			allocated = allocated.Add(r.Amount)
		}
	}
	if allocated.IsZero() {
		return UtilizationComponentMax, 0
	}

	spent := approvedSpend(expenses)

	utilization, _ := spent.Div(allocated).Mul(decimal.NewFromInt(100)).Float64()

	switch {
	case utilization >= 80 && utilization <= 95:
		return UtilizationComponentMax, utilization
	case utilization > 95 && utilization <= 100:
		return 28, utilization
	case utilization >= 70 && utilization < 80:
		return 22, utilization
	case utilization > 100:
		overshoot := utilization - 100
		points := 25 - int(math.Round(overshoot/2))
		if points < 0 {
			points = 0
		}
		return points, utilization
	default:
		return int(math.Round(utilization / 70 * 22)), utilization
	}
}

// transparencyComponent awards two 10-point halves: the fraction of expenses
// that passed review, and the fraction of fund requests that reached a
// decision. Empty collections earn full points; an organization cannot be
// penalized for records it does not have.
func transparencyComponent(expenses []ExpenseRecord, requests []FundRequestRecord) (int, float64, float64) {
	approvedRatio := 1.0
	if len(expenses) > 0 {
		approved := 0
		for _, e := range expenses {
			if e.Status == StatusApproved {
				approved++
			}
		}
		approvedRatio = float64(approved) / float64(len(expenses))
	}

	resolvedRatio := 1.0
	if len(requests) > 0 {
		resolved := 0
		for _, r := range requests {
			if r.Status != StatusPending {
				resolved++
			}
		}
		resolvedRatio = float64(resolved) / float64(len(requests))
	}

	points := int(math.Round(10*approvedRatio)) + int(math.Round(10*resolvedRatio))
	return points, approvedRatio, resolvedRatio
}

// donorConfidenceComponent awards up to 10 points from campaign outcomes:
// 60% weight on the success rate of completed campaigns, 40% on the average
// progress of active ones. Both default to a neutral 50 when there is nothing
// to measure.
func donorConfidenceComponent(campaigns []CampaignRecord) (int, float64, float64) {
	if len(campaigns) == 0 {
		return DonorConfidenceComponentMax, 0, 0
	}

	successBar := decimal.NewFromFloat(0.8)

	completed, successful := 0, 0
	activeProgressSum := 0.0
	active := 0

	for _, c := range campaigns {
		switch c.Status {
		case StatusCompleted:
			completed++
			if !c.TargetAmount.IsPositive() ||
				c.RaisedAmount.GreaterThanOrEqual(c.TargetAmount.Mul(successBar)) {
				successful++
			}
		case StatusActive:
			active++
			progress := 100.0
			if c.TargetAmount.IsPositive() {
				progress, _ = c.RaisedAmount.Div(c.TargetAmount).Mul(decimal.NewFromInt(100)).Float64()
				if progress > 100 {
					progress = 100
				}
			}
			activeProgressSum += progress
		}
	}

	successRate := 50.0
	if completed > 0 {
		successRate = 100 * float64(successful) / float64(completed)
	}

	avgProgress := 50.0
	if active > 0 {
		avgProgress = activeProgressSum / float64(active)
	}

	points := int(math.Round((successRate*0.6 + avgProgress*0.4) / 10))
	return points, successRate, avgProgress
}

func fundMetrics(expenses []ExpenseRecord, requests []FundRequestRecord, campaigns []CampaignRecord, donations *DonationStats) FundMetrics {
	metrics := FundMetrics{
		TotalRaised:       decimal.Zero,
		TotalAllocated:    decimal.Zero,
		TotalSpent:        approvedSpend(expenses),
		ExpenseCount:      len(expenses),
		CampaignCount:     len(campaigns),
		CampaignsByStatus: make(map[string]int),
	}

	if donations != nil {
		metrics.TotalRaised = donations.Total
		metrics.DonorCount = donations.DonorCount
	}
	for _, r := range requests {
		if r.Status == StatusApproved || r.Status == StatusCompleted {
			metrics.TotalAllocated = metrics.TotalAllocated.Add(r.Amount)
		}
	}
	for _, c := range campaigns {
		metrics.CampaignsByStatus[c.Status]++
	}

	// Available funds are what remains uncommitted, not merely unspent.
	metrics.AvailableFunds = metrics.TotalRaised.Sub(metrics.TotalAllocated)
	if metrics.TotalRaised.IsPositive() {
		metrics.UtilizationPercentage, _ = metrics.TotalSpent.Div(metrics.TotalRaised).Mul(decimal.NewFromInt(100)).Float64()
	}
	return metrics
}

// approvedSpend sums the amounts of approved expenses only.
func approvedSpend(expenses []ExpenseRecord) decimal.Decimal {
	spent := decimal.Zero
	for _, e := range expenses {
		if e.Status == StatusApproved {
			spent = spent.Add(e.Amount)
		}
	}
	return spent
}

func decodeScore(raw []byte) (*TrustScore, error) {
	var score TrustScore
	if err := json.Unmarshal(raw, &score); err != nil {
		return nil, err
	}
	if score.OrganizationID == uuid.Nil {
		return nil, errors.New("corrupt cached trust score")
	}
	return &score, nil
}

package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fundexhq/fundex/pkg/cache"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ExpensesByOrganization(ctx context.Context, orgID uuid.UUID) ([]ExpenseRecord, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ExpenseRecord), args.Error(1)
}

func (m *MockRepository) FundRequestsByOrganization(ctx context.Context, orgID uuid.UUID) ([]FundRequestRecord, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]FundRequestRecord), args.Error(1)
}

func (m *MockRepository) CampaignsByOrganization(ctx context.Context, orgID uuid.UUID) ([]CampaignRecord, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CampaignRecord), args.Error(1)
}

func (m *MockRepository) DonationStatsByOrganization(ctx context.Context, orgID uuid.UUID) (*DonationStats, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DonationStats), args.Error(1)
}

func (m *MockRepository) SaveTrustSnapshot(ctx context.Context, orgID uuid.UUID, score *TrustScore) error {
	args := m.Called(ctx, orgID, score)
	return args.Error(0)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

// fakeClock lets tests control both the service clock and the cache clock.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestService(repo Repository) (Service, *fakeClock, cache.Cache) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryWithClock(clock.Now)
	svc := NewService(repo, store, 24*time.Hour).(*scoreService)
	svc.now = clock.Now
	return svc, clock, store
}

func emptyOrg(repo *MockRepository, orgID uuid.UUID) {
	repo.On("ExpensesByOrganization", mock.Anything, orgID).Return([]ExpenseRecord{}, nil)
	repo.On("FundRequestsByOrganization", mock.Anything, orgID).Return([]FundRequestRecord{}, nil)
	repo.On("CampaignsByOrganization", mock.Anything, orgID).Return([]CampaignRecord{}, nil)
	repo.On("DonationStatsByOrganization", mock.Anything, orgID).Return(&DonationStats{Total: decimal.Zero}, nil)
}

func TestComputeTrustScore_EmptyOrganizationScoresFull(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()
	emptyOrg(repo, orgID)

	service, _, _ := newTestService(repo)

	score, err := service.ComputeTrustScore(context.Background(), orgID)
	require.NoError(t, err)
	assert.Equal(t, 100, score.Score)
	assert.Equal(t, FraudComponentMax, score.Breakdown.FraudComponent)
	assert.Equal(t, UtilizationComponentMax, score.Breakdown.UtilizationComponent)
	assert.Equal(t, TransparencyComponentMax, score.Breakdown.TransparencyComponent)
	assert.Equal(t, DonorConfidenceComponentMax, score.Breakdown.DonorConfidenceComponent)
}

func TestComputeTrustScore_HealthyEstablishedOrganization(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()

	var expenses []ExpenseRecord
	for i := 0; i < 10; i++ {
		expenses = append(expenses, ExpenseRecord{
			Amount:     dec("8500"),
			FraudScore: 20,
			Status:     StatusApproved,
		})
	}
	repo.On("ExpensesByOrganization", mock.Anything, orgID).Return(expenses, nil)
	repo.On("FundRequestsByOrganization", mock.Anything, orgID).Return([]FundRequestRecord{
		{Amount: dec("100000"), Status: StatusApproved},
	}, nil)
	repo.On("CampaignsByOrganization", mock.Anything, orgID).Return([]CampaignRecord{
		{TargetAmount: dec("50000"), RaisedAmount: dec("52000"), Status: StatusCompleted},
		{TargetAmount: dec("30000"), RaisedAmount: dec("27000"), Status: StatusCompleted},
		{TargetAmount: dec("20000"), RaisedAmount: dec("20000"), Status: StatusCompleted},
	}, nil)
	repo.On("DonationStatsByOrganization", mock.Anything, orgID).Return(&DonationStats{
		Total:      dec("102000"),
		DonorCount: 340,
	}, nil)

	service, _, _ := newTestService(repo)

	score, err := service.ComputeTrustScore(context.Background(), orgID)
	require.NoError(t, err)

	// 32 fraud + 30 utilization (85%) + 20 transparency + 8 donor confidence.
	assert.Equal(t, 90, score.Score)
	assert.Equal(t, 32, score.Breakdown.FraudComponent)
	assert.Equal(t, 30, score.Breakdown.UtilizationComponent)
	assert.Equal(t, 20, score.Breakdown.TransparencyComponent)
	assert.Equal(t, 8, score.Breakdown.DonorConfidenceComponent)
	assert.InDelta(t, 85.0, score.Breakdown.UtilizationPercent, 0.01)
	assert.Equal(t, 340, score.FundMetrics.DonorCount)
}

func TestGetTrustScore_CachedWithinTTL(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()
	emptyOrg(repo, orgID)
	repo.On("SaveTrustSnapshot", mock.Anything, orgID, mock.Anything).Return(nil)

	service, clock, store := newTestService(repo)
	ctx := context.Background()

	first, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err)

	// Wait for the async write-back to land in the cache.
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, cacheKeyPrefix+orgID.String())
		return err == nil
	}, time.Second, 10*time.Millisecond)

	clock.Advance(23 * time.Hour)

	second, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)
	assert.True(t, first.CalculatedAt.Equal(second.CalculatedAt), "cached score must be returned unchanged")

	// Source records were read exactly once.
	repo.AssertNumberOfCalls(t, "ExpensesByOrganization", 1)
}

func TestGetTrustScore_RecomputesAfterTTL(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()
	emptyOrg(repo, orgID)
	repo.On("SaveTrustSnapshot", mock.Anything, orgID, mock.Anything).Return(nil)

	service, clock, store := newTestService(repo)
	ctx := context.Background()

	_, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, cacheKeyPrefix+orgID.String())
		return err == nil
	}, time.Second, 10*time.Millisecond)

	clock.Advance(25 * time.Hour)

	_, err = service.GetTrustScore(ctx, orgID)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "ExpensesByOrganization", 2)
}

func TestGetTrustScore_StaleFallbackOnComputeFailure(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()

	repo.On("ExpensesByOrganization", mock.Anything, orgID).Return([]ExpenseRecord{}, nil).Once()
	repo.On("FundRequestsByOrganization", mock.Anything, orgID).Return([]FundRequestRecord{}, nil).Once()
	repo.On("CampaignsByOrganization", mock.Anything, orgID).Return([]CampaignRecord{}, nil).Once()
	repo.On("DonationStatsByOrganization", mock.Anything, orgID).Return(&DonationStats{Total: decimal.Zero}, nil).Once()
	repo.On("SaveTrustSnapshot", mock.Anything, orgID, mock.Anything).Return(nil)

	service, clock, store := newTestService(repo)
	ctx := context.Background()

	first, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, cacheKeyPrefix+orgID.String())
		return err == nil
	}, time.Second, 10*time.Millisecond)

	// Cache expires, and the database starts failing.
	clock.Advance(25 * time.Hour)
	repo.On("ExpensesByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("FundRequestsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("CampaignsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("DonationStatsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))

	stale, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err, "a stale score beats no score")
	assert.Equal(t, first.Score, stale.Score)
}

func TestGetTrustScore_ErrorWhenNoCacheExists(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()
	repo.On("ExpensesByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("FundRequestsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("CampaignsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))
	repo.On("DonationStatsByOrganization", mock.Anything, orgID).Return(nil, errors.New("connection refused"))

	service, _, _ := newTestService(repo)

	_, err := service.GetTrustScore(context.Background(), orgID)
	require.Error(t, err)
}

func TestGetTrustScore_WriteBackFailureIsIsolated(t *testing.T) {
	repo := new(MockRepository)
	orgID := uuid.New()
	emptyOrg(repo, orgID)
	repo.On("SaveTrustSnapshot", mock.Anything, orgID, mock.Anything).Return(errors.New("disk full"))

	service, _, store := newTestService(repo)
	ctx := context.Background()

	score, err := service.GetTrustScore(ctx, orgID)
	require.NoError(t, err, "write-back failures must not surface to the read path")
	assert.Equal(t, 100, score.Score)

	// The cache write still happens even when the snapshot persist fails.
	require.Eventually(t, func() bool {
		_, err := store.Get(ctx, cacheKeyPrefix+orgID.String())
		return err == nil
	}, time.Second, 10*time.Millisecond)
}

func TestUtilizationComponent_Curve(t *testing.T) {
	request := func(amount string) []FundRequestRecord {
		return []FundRequestRecord{{Amount: dec(amount), Status: StatusApproved}}
	}
	spend := func(amount string) []ExpenseRecord {
		return []ExpenseRecord{{Amount: dec(amount), Status: StatusApproved}}
	}

	tests := []struct {
		name      string
		allocated string
		spent     string
		points    int
	}{
		{"ideal_85", "1000", "850", 30},
		{"ideal_lower_80", "1000", "800", 30},
		{"ideal_upper_95", "1000", "950", 30},
		{"near_full_98", "1000", "980", 28},
		{"moderate_75", "1000", "750", 22},
		{"low_35", "1000", "350", 11},
		{"zero_spend", "1000", "0", 0},
		{"overshoot_110", "1000", "1100", 20},
		{"overshoot_200", "1000", "2000", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, _ := utilizationComponent(request(tt.allocated), spend(tt.spent))
			assert.Equal(t, tt.points, points)
		})
	}
}

func TestUtilizationComponent_NoApprovedRequests(t *testing.T) {
	points, percent := utilizationComponent(
		[]FundRequestRecord{{Amount: dec("1000"), Status: StatusPending}},
		[]ExpenseRecord{{Amount: dec("500")}},
	)
	assert.Equal(t, UtilizationComponentMax, points)
	assert.Zero(t, percent)
}

func TestUtilizationComponent_OnlyApprovedSpendCounts(t *testing.T) {
	requests := []FundRequestRecord{{Amount: dec("10000"), Status: StatusApproved}}
	expenses := []ExpenseRecord{
		{Amount: dec("8500"), Status: StatusApproved},
		{Amount: dec("3000"), Status: StatusPending},
		{Amount: dec("2000"), Status: "flagged"},
	}

	points, percent := utilizationComponent(requests, expenses)
	assert.InDelta(t, 85.0, percent, 0.01, "pending and flagged submissions are not spend")
	assert.Equal(t, UtilizationComponentMax, points)
}

func TestFundMetrics_Accounting(t *testing.T) {
	expenses := []ExpenseRecord{
		{Amount: dec("2000"), Status: StatusApproved},
		{Amount: dec("1000"), Status: StatusPending},
	}
	requests := []FundRequestRecord{
		{Amount: dec("5000"), Status: StatusApproved},
		{Amount: dec("4000"), Status: StatusPending},
	}
	campaigns := []CampaignRecord{
		{Status: StatusActive},
		{Status: StatusCompleted},
		{Status: StatusCompleted},
	}
	donations := &DonationStats{Total: dec("20000"), DonorCount: 55}

	metrics := fundMetrics(expenses, requests, campaigns, donations)

	assert.True(t, metrics.TotalSpent.Equal(dec("2000")), "only approved expenses are spend")
	assert.True(t, metrics.TotalAllocated.Equal(dec("5000")))
	assert.True(t, metrics.AvailableFunds.Equal(dec("15000")), "available = raised - allocated")
	assert.InDelta(t, 10.0, metrics.UtilizationPercentage, 0.01)
	assert.Equal(t, map[string]int{StatusActive: 1, StatusCompleted: 2}, metrics.CampaignsByStatus)
	assert.Equal(t, 55, metrics.DonorCount)
	assert.Equal(t, 2, metrics.ExpenseCount)
	assert.Equal(t, 3, metrics.CampaignCount)
}

func TestTransparencyComponent_Halves(t *testing.T) {
	expenses := []ExpenseRecord{
		{Status: StatusApproved},
		{Status: StatusApproved},
		{Status: StatusPending},
		{Status: "flagged"},
	}
	requests := []FundRequestRecord{
		{Status: StatusApproved},
		{Status: StatusRejected},
		{Status: StatusPending},
	}

	points, approvedRatio, resolvedRatio := transparencyComponent(expenses, requests)
	assert.InDelta(t, 0.5, approvedRatio, 0.001)
	assert.InDelta(t, 2.0/3.0, resolvedRatio, 0.001)
	// round(10*0.5) + round(10*0.667) = 5 + 7
	assert.Equal(t, 12, points)
}

func TestDonorConfidenceComponent_NeutralDefaults(t *testing.T) {
	// Active campaigns only: success rate defaults to the neutral 50.
	points, successRate, avgProgress := donorConfidenceComponent([]CampaignRecord{
		{TargetAmount: dec("1000"), RaisedAmount: dec("600"), Status: StatusActive},
	})
	assert.InDelta(t, 50.0, successRate, 0.001)
	assert.InDelta(t, 60.0, avgProgress, 0.001)
	// round((50*0.6 + 60*0.4)/10) = round(5.4)
	assert.Equal(t, 5, points)
}

func TestFraudComponent_HighRiskCounting(t *testing.T) {
	points, avg, highRisk := fraudComponent([]ExpenseRecord{
		{FraudScore: 10},
		{FraudScore: 65},
		{FraudScore: 85},
	})
	assert.InDelta(t, 53.33, avg, 0.01)
	assert.Equal(t, 2, highRisk)
	// round(40 * (1 - 53.33/100)) = round(18.67)
	assert.Equal(t, 19, points)
}

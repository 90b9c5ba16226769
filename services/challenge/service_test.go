package challenge

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/pkg/sequence"
	"campusgrill-loyalty/services/coupon"
	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/order"
	"campusgrill-loyalty/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T, seed int64) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t,
		&member.Member{},
		&order.Order{},
		&order.OrderItem{},
		&ledger.PointTransaction{},
		&coupon.Redemption{},
		&coupon.Coupon{},
		&DailyBonus{},
		&WeeklyChallenge{},
		&Progress{},
	)

	cfg := config.Default()
	node := testutil.NewNode(t)

	ledgerSvc := ledger.NewService(ledger.ServiceParams{
		DB:     db,
		Node:   node,
		Seq:    sequence.NewCouponCodeGenerator(),
		Config: cfg,
	})

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Config:   cfg,
		Location: time.UTC,
		Ledger:   ledgerSvc,
		Rand:     rand.New(rand.NewSource(seed)),
	})
	return svc, db
}

func TestGenerateDailyBoundedAndIdempotent(t *testing.T) {
	svc, db := newTestService(t, 42)
	day := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	bonuses, err := svc.GenerateDaily(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, bonuses, 2)

	keys := map[string]bool{}
	for _, b := range bonuses {
		require.Equal(t, "2026-03-02", b.BonusDate)
		require.False(t, keys[b.ConditionKey], "duplicate condition key %q", b.ConditionKey)
		keys[b.ConditionKey] = true
	}

	// Regenerating the same day adds nothing.
	again, err := svc.GenerateDaily(context.Background(), day)
	require.NoError(t, err)
	require.Len(t, again, 2)

	var count int64
	require.NoError(t, db.Model(&DailyBonus{}).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestGenerateDailyIsDeterministicPerSeed(t *testing.T) {
	day := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	svcA, _ := newTestService(t, 7)
	first, err := svcA.GenerateDaily(context.Background(), day)
	require.NoError(t, err)

	svcB, _ := newTestService(t, 7)
	second, err := svcB.GenerateDaily(context.Background(), day)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].ConditionKey, second[i].ConditionKey)
	}
}

func TestGenerateWeeklyBoundedAndKeyed(t *testing.T) {
	svc, db := newTestService(t, 42)
	wednesday := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	challenges, err := svc.GenerateWeekly(context.Background(), wednesday)
	require.NoError(t, err)
	require.Len(t, challenges, 3)

	keys := map[string]bool{}
	for _, c := range challenges {
		require.Equal(t, "2026-03-02", c.WeekStart)
		require.Equal(t, "2026-03-08", c.WeekEnd)
		require.Positive(t, c.Target)
		require.False(t, keys[c.ConditionKey], "duplicate condition key %q", c.ConditionKey)
		keys[c.ConditionKey] = true
	}

	// A later day of the same week resolves to the same window.
	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	again, err := svc.GenerateWeekly(context.Background(), sunday)
	require.NoError(t, err)
	require.Len(t, again, 3)

	var count int64
	require.NoError(t, db.Model(&WeeklyChallenge{}).Count(&count).Error)
	require.Equal(t, int64(3), count)
}

func TestTodayBonusesFiltersByDateAndTopsUp(t *testing.T) {
	svc, db := newTestService(t, 42)

	require.NoError(t, db.Create(&DailyBonus{
		ID: "b1", BonusDate: "2026-03-02", Description: "x", ConditionKey: "before_11am", PointsReward: 50, Active: true,
	}).Error)
	require.NoError(t, db.Create(&DailyBonus{
		ID: "b2", BonusDate: "2026-03-03", Description: "y", ConditionKey: "after_8pm", PointsReward: 40, Active: true,
	}).Error)

	// The read tops the day up to its full slate; the other day's bonus
	// stays out of it.
	bonuses, err := svc.TodayBonuses(context.Background(), time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, bonuses, 2)
	for _, b := range bonuses {
		require.Equal(t, "2026-03-02", b.BonusDate)
	}
}

func TestReadPathsGenerateOnDemand(t *testing.T) {
	svc, db := newTestService(t, 42)
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	// No scheduler has run; the reads still come back fully populated.
	bonuses, err := svc.TodayBonuses(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, bonuses, 2)

	challenges, err := svc.CurrentWeekly(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, challenges, 3)

	// Reading again converges instead of growing.
	bonuses, err = svc.TodayBonuses(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, bonuses, 2)

	var count int64
	require.NoError(t, db.Model(&WeeklyChallenge{}).Count(&count).Error)
	require.Equal(t, int64(3), count)
}

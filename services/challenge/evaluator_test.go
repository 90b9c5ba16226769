package challenge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/order"
)

func seedMember(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	require.NoError(t, db.Create(&member.Member{ID: id, Email: id + "@campus.edu", Tier: "bronze"}).Error)
}

func memberBalance(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var total int64
	require.NoError(t, db.Model(&ledger.PointTransaction{}).
		Where("member_id = ?", id).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error)
	return total
}

func TestCheckDailyAwardsOncePerMember(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&DailyBonus{
		ID: "b1", BonusDate: "2026-03-02", Description: "Order before 11am",
		ConditionKey: "before_11am", PointsReward: 50, Active: true,
	}).Error)

	morning := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	first := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 10, OrderedAt: morning}

	completed, err := svc.CheckDaily(context.Background(), first)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, int64(50), memberBalance(t, db, "m1"))

	// A second qualifying order the same day earns nothing more.
	second := &order.Order{ID: "o2", MemberID: "m1", TotalPrice: 10, OrderedAt: morning.Add(15 * time.Minute)}
	completed, err = svc.CheckDaily(context.Background(), second)
	require.NoError(t, err)
	require.Empty(t, completed)
	require.Equal(t, int64(50), memberBalance(t, db, "m1"))
}

func TestCheckDailyOneOrderCanCompleteSeveralBonuses(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&DailyBonus{
		ID: "b1", BonusDate: "2026-03-02", Description: "Order before 11am",
		ConditionKey: "before_11am", PointsReward: 50, Active: true,
	}).Error)
	require.NoError(t, db.Create(&DailyBonus{
		ID: "b2", BonusDate: "2026-03-02", Description: "Add bacon",
		ConditionKey: "bacon_lover", PointsReward: 30, Active: true,
	}).Error)

	ord := &order.Order{
		ID: "o1", MemberID: "m1", TotalPrice: 10,
		OrderedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Items: []order.OrderItem{
			{ID: "i1", OrderID: "o1", Name: "Bacon", Category: order.CategoryTopping, Price: 1.5, Quantity: 1},
		},
	}

	completed, err := svc.CheckDaily(context.Background(), ord)
	require.NoError(t, err)
	require.Len(t, completed, 2)
	require.Equal(t, int64(80), memberBalance(t, db, "m1"))
}

func TestCheckDailyIgnoresNonQualifyingOrder(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&DailyBonus{
		ID: "b1", BonusDate: "2026-03-02", Description: "Order before 11am",
		ConditionKey: "before_11am", PointsReward: 50, Active: true,
	}).Error)

	afternoon := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 10,
		OrderedAt: time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)}

	completed, err := svc.CheckDaily(context.Background(), afternoon)
	require.NoError(t, err)
	require.Empty(t, completed)
	require.Zero(t, memberBalance(t, db, "m1"))
}

func TestCheckDailyRollsBackLatchWhenAwardFails(t *testing.T) {
	svc, db := newTestService(t, 42)

	require.NoError(t, db.Create(&DailyBonus{
		ID: "b1", BonusDate: "2026-03-02", Description: "Order before 11am",
		ConditionKey: "before_11am", PointsReward: 50, Active: true,
	}).Error)

	// No member row, so the award inside the unit of work fails; the latch
	// must roll back with it rather than strand an unpaid completion.
	ord := &order.Order{ID: "o1", MemberID: "ghost", TotalPrice: 10,
		OrderedAt: time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)}

	_, err := svc.CheckDaily(context.Background(), ord)
	require.Error(t, err)

	var p Progress
	require.NoError(t, db.First(&p, "member_id = ?", "ghost").Error)
	require.False(t, p.Completed)
	require.Zero(t, memberBalance(t, db, "ghost"))

	// Once the member exists, a retry completes and pays the bonus.
	seedMember(t, db, "ghost")
	completed, err := svc.CheckDaily(context.Background(), ord)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, int64(50), memberBalance(t, db, "ghost"))
}

func TestCheckWeeklyAccumulatesAndLatchesAtTarget(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&WeeklyChallenge{
		ID: "c1", WeekStart: "2026-03-02", WeekEnd: "2026-03-08",
		Description: "Order 3 times this week", ConditionKey: "weekly_orders",
		Target: 3, PointsReward: 100, Active: true,
	}).Error)

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, day := range []int{0, 1} {
		ord := &order.Order{ID: string(rune('a' + i)), MemberID: "m1", TotalPrice: 10, OrderedAt: base.AddDate(0, 0, day)}
		completed, err := svc.CheckWeekly(context.Background(), ord)
		require.NoError(t, err)
		require.Empty(t, completed)
	}

	var p Progress
	require.NoError(t, db.First(&p, "member_id = ?", "m1").Error)
	require.Equal(t, 2, p.Progress)
	require.False(t, p.Completed)

	third := &order.Order{ID: "o3", MemberID: "m1", TotalPrice: 10, OrderedAt: base.AddDate(0, 0, 2)}
	completed, err := svc.CheckWeekly(context.Background(), third)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, int64(100), memberBalance(t, db, "m1"))

	// Progress past the target never re-awards.
	fourth := &order.Order{ID: "o4", MemberID: "m1", TotalPrice: 10, OrderedAt: base.AddDate(0, 0, 3)}
	completed, err = svc.CheckWeekly(context.Background(), fourth)
	require.NoError(t, err)
	require.Empty(t, completed)
	require.Equal(t, int64(100), memberBalance(t, db, "m1"))
}

func TestCheckWeeklySpendChallengeCountsDollars(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&WeeklyChallenge{
		ID: "c1", WeekStart: "2026-03-02", WeekEnd: "2026-03-08",
		Description: "Spend $50 this week", ConditionKey: "spend_dollars",
		Target: 50, PointsReward: 150, Active: true,
	}).Error)

	base := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	completed, err := svc.CheckWeekly(context.Background(),
		&order.Order{ID: "o1", MemberID: "m1", TotalPrice: 30, OrderedAt: base})
	require.NoError(t, err)
	require.Empty(t, completed)

	completed, err = svc.CheckWeekly(context.Background(),
		&order.Order{ID: "o2", MemberID: "m1", TotalPrice: 25, OrderedAt: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.Equal(t, int64(150), memberBalance(t, db, "m1"))
}

func TestCheckWeeklyIgnoresOrdersOutsideTheWeek(t *testing.T) {
	svc, db := newTestService(t, 42)
	seedMember(t, db, "m1")

	require.NoError(t, db.Create(&WeeklyChallenge{
		ID: "c1", WeekStart: "2026-03-02", WeekEnd: "2026-03-08",
		Description: "Order 3 times this week", ConditionKey: "weekly_orders",
		Target: 3, PointsReward: 100, Active: true,
	}).Error)

	// Next Monday falls into a different window.
	nextWeek := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 10,
		OrderedAt: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)}

	completed, err := svc.CheckWeekly(context.Background(), nextWeek)
	require.NoError(t, err)
	require.Empty(t, completed)

	var count int64
	require.NoError(t, db.Model(&Progress{}).Count(&count).Error)
	require.Zero(t, count)
}

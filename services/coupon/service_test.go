package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/services/order"
	"campusgrill-loyalty/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &Coupon{}, &order.Order{}, &order.OrderItem{})
	svc := NewService(ServiceParams{DB: db, Node: testutil.NewNode(t), Location: time.UTC})
	return svc, db
}

func seedCoupon(t *testing.T, db *gorm.DB, c *Coupon) *Coupon {
	t.Helper()
	if c.ID == "" {
		c.ID = "c-" + c.Code
	}
	if c.RedemptionID == "" {
		c.RedemptionID = "r-" + c.Code
	}
	if c.ExpiryDate.IsZero() {
		c.ExpiryDate = time.Now().AddDate(0, 0, 90)
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestValidateRejections(t *testing.T) {
	svc, db := newTestService(t)

	usedAt := time.Now()
	seedCoupon(t, db, &Coupon{Code: "GRILL-OK", MemberID: "m1", RewardType: FreeTopping})
	seedCoupon(t, db, &Coupon{Code: "GRILL-USED", MemberID: "m1", RewardType: FreeTopping, IsUsed: true, UsedAt: &usedAt})
	seedCoupon(t, db, &Coupon{Code: "GRILL-OLD", MemberID: "m1", RewardType: FreeTopping, ExpiryDate: time.Now().AddDate(0, 0, -1)})

	_, err := svc.Validate(context.Background(), "GRILL-NOPE", "m1", nil)
	require.True(t, errutil.HasStatus(err, errutil.StatusNotFound))

	_, err = svc.Validate(context.Background(), "GRILL-OK", "m2", nil)
	require.True(t, errutil.HasStatus(err, errutil.StatusForbidden))

	_, err = svc.Validate(context.Background(), "GRILL-USED", "m1", nil)
	require.True(t, errutil.HasStatus(err, errutil.StatusCouponUsed))

	_, err = svc.Validate(context.Background(), "GRILL-OLD", "m1", nil)
	require.True(t, errutil.HasStatus(err, errutil.StatusCouponExpired))

	c, err := svc.Validate(context.Background(), "GRILL-OK", "m1", nil)
	require.NoError(t, err)
	require.Equal(t, StateIssued, c.State())
}

func TestCouponExpiringTodayIsStillValid(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-TODAY", MemberID: "m1", RewardType: FreeTopping, ExpiryDate: time.Now()})

	_, err := svc.Validate(context.Background(), "GRILL-TODAY", "m1", nil)
	require.NoError(t, err)
}

func TestExpiryFollowsReferenceTimezone(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on Mar 5 is still the evening of Mar 4 in New York, so a
	// coupon whose expiry falls on Mar 4 has one more day in it there.
	now := time.Date(2026, 3, 5, 2, 0, 0, 0, time.UTC)
	c := &Coupon{ExpiryDate: time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)}

	require.False(t, c.Expired(now, eastern))
	require.True(t, c.Expired(now, time.UTC))

	// Past its date in both zones.
	stale := &Coupon{ExpiryDate: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	require.True(t, stale.Expired(now, eastern))
}

func TestApplyToAnotherMembersOrderForbidden(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-SKIP", MemberID: "m1", RewardType: SkipQueue})

	victim := &order.Order{ID: "o1", MemberID: "m2", TotalPrice: 10, OrderedAt: time.Now().UTC()}
	require.NoError(t, db.Create(victim).Error)

	_, err := svc.Apply(context.Background(), "GRILL-SKIP", "m1", victim)
	require.True(t, errutil.HasStatus(err, errutil.StatusForbidden))

	// Nothing was pinned or flagged.
	var c Coupon
	require.NoError(t, db.First(&c, "code = ?", "GRILL-SKIP").Error)
	require.Equal(t, StateIssued, c.State())

	var stored order.Order
	require.NoError(t, db.First(&stored, "id = ?", "o1").Error)
	require.False(t, stored.Priority)
}

func TestApplyFixedDiscountCappedByOrderTotal(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-3OFF", MemberID: "m1", RewardType: ThreeDollarOff})

	ord := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 2.00, OrderedAt: time.Now().UTC()}
	require.NoError(t, db.Create(ord).Error)

	result, err := svc.Apply(context.Background(), "GRILL-3OFF", "m1", ord)
	require.NoError(t, err)
	require.Equal(t, 2.00, result.Discount)

	var c Coupon
	require.NoError(t, db.First(&c, "code = ?", "GRILL-3OFF").Error)
	require.Equal(t, StatePending, c.State())
	require.Equal(t, "o1", *c.UsedOrderID)
}

func TestApplyFreeToppingDiscountsToppingLines(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-TOP", MemberID: "m1", RewardType: FreeTopping})

	ord := &order.Order{
		ID: "o1", MemberID: "m1", TotalPrice: 12.50, OrderedAt: time.Now().UTC(),
		Items: []order.OrderItem{
			{ID: "i1", OrderID: "o1", Name: "Beef Patty", Category: order.CategoryPatty, Price: 8.00, Quantity: 1},
			{ID: "i2", OrderID: "o1", Name: "Bacon", Category: order.CategoryTopping, Price: 1.50, Quantity: 2},
			{ID: "i3", OrderID: "o1", Name: "Avocado", Category: order.CategoryTopping, Price: 1.50, Quantity: 1},
		},
	}
	require.NoError(t, db.Create(ord).Error)

	result, err := svc.Apply(context.Background(), "GRILL-TOP", "m1", ord)
	require.NoError(t, err)
	require.Equal(t, 4.50, result.Discount)
}

func TestApplySkipQueueFlagsPriority(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-SKIP", MemberID: "m1", RewardType: SkipQueue})

	ord := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 10, OrderedAt: time.Now().UTC()}
	require.NoError(t, db.Create(ord).Error)

	result, err := svc.Apply(context.Background(), "GRILL-SKIP", "m1", ord)
	require.NoError(t, err)
	require.True(t, result.Priority)
	require.Zero(t, result.Discount)

	var stored order.Order
	require.NoError(t, db.First(&stored, "id = ?", "o1").Error)
	require.True(t, stored.Priority)
}

func TestApplyTwiceToSameOrderRejected(t *testing.T) {
	svc, db := newTestService(t)
	seedCoupon(t, db, &Coupon{Code: "GRILL-3OFF", MemberID: "m1", RewardType: ThreeDollarOff})

	ord := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 10, OrderedAt: time.Now().UTC()}
	require.NoError(t, db.Create(ord).Error)

	_, err := svc.Apply(context.Background(), "GRILL-3OFF", "m1", ord)
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), "GRILL-3OFF", "m1", ord)
	require.True(t, errutil.HasStatus(err, errutil.StatusCouponApplied))
}

func TestConfirmSpendsPendingCoupon(t *testing.T) {
	svc, db := newTestService(t)
	orderID := "o1"
	seedCoupon(t, db, &Coupon{Code: "GRILL-PEND", MemberID: "m1", RewardType: ThreeDollarOff, UsedOrderID: &orderID})

	require.NoError(t, svc.Confirm(context.Background(), "GRILL-PEND", "o1"))

	var c Coupon
	require.NoError(t, db.First(&c, "code = ?", "GRILL-PEND").Error)
	require.Equal(t, StateUsed, c.State())
	require.NotNil(t, c.UsedAt)

	// Redelivered confirmation is a no-op.
	require.NoError(t, svc.Confirm(context.Background(), "GRILL-PEND", "o1"))
}

func TestConfirmWrongOrderConflicts(t *testing.T) {
	svc, db := newTestService(t)
	orderID := "o1"
	seedCoupon(t, db, &Coupon{Code: "GRILL-PEND", MemberID: "m1", RewardType: ThreeDollarOff, UsedOrderID: &orderID})

	err := svc.Confirm(context.Background(), "GRILL-PEND", "o2")
	require.True(t, errutil.HasStatus(err, errutil.StatusConflict))
}

func TestReleaseReturnsCouponToIssued(t *testing.T) {
	svc, db := newTestService(t)
	orderID := "o1"
	seedCoupon(t, db, &Coupon{Code: "GRILL-PEND", MemberID: "m1", RewardType: ThreeDollarOff, UsedOrderID: &orderID})

	require.NoError(t, svc.Release(context.Background(), "GRILL-PEND", "o1"))

	var c Coupon
	require.NoError(t, db.First(&c, "code = ?", "GRILL-PEND").Error)
	require.Equal(t, StateIssued, c.State())
	require.Nil(t, c.UsedOrderID)

	// Releasing an already released coupon stays a no-op.
	require.NoError(t, svc.Release(context.Background(), "GRILL-PEND", "o1"))
}

func TestReleaseUsedCouponRejected(t *testing.T) {
	svc, db := newTestService(t)
	usedAt := time.Now()
	orderID := "o1"
	seedCoupon(t, db, &Coupon{Code: "GRILL-DONE", MemberID: "m1", RewardType: ThreeDollarOff, IsUsed: true, UsedAt: &usedAt, UsedOrderID: &orderID})

	err := svc.Release(context.Background(), "GRILL-DONE", "o1")
	require.True(t, errutil.HasStatus(err, errutil.StatusCouponUsed))
}

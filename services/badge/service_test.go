package badge

import (
	"context"
	"fmt"
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

func newTestService(t *testing.T) (*Service, *order.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t,
		&member.Member{},
		&order.Order{},
		&order.OrderItem{},
		&ledger.PointTransaction{},
		&coupon.Redemption{},
		&coupon.Coupon{},
		&Badge{},
		&MemberBadge{},
	)

	node := testutil.NewNode(t)
	ledgerSvc := ledger.NewService(ledger.ServiceParams{
		DB:     db,
		Node:   node,
		Seq:    sequence.NewCouponCodeGenerator(),
		Config: config.Default(),
	})
	orderSvc := order.NewService(order.ServiceParams{DB: db, Node: node})

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Location: time.UTC,
		Ledger:   ledgerSvc,
		Orders:   orderSvc,
	})
	return svc, orderSvc, db
}

func slugs(badges []*Badge) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.Slug)
	}
	return out
}

func TestFirstOrderGrantsFirstBite(t *testing.T) {
	svc, orders, db := newTestService(t)
	require.NoError(t, db.Create(&member.Member{ID: "m1", Email: "m1@campus.edu", Tier: "bronze"}).Error)

	ord := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 9.50, OrderedAt: time.Now().UTC()}
	require.NoError(t, orders.Save(context.Background(), ord))

	granted, err := svc.CheckAndGrant(context.Background(), ord)
	require.NoError(t, err)
	require.Contains(t, slugs(granted), "first_bite")

	// The fixed bonus landed on the ledger, unmultiplied.
	var txn ledger.PointTransaction
	require.NoError(t, db.First(&txn, "member_id = ? AND event_type = ?", "m1", ledger.EventBadgeBonus).Error)
	require.Equal(t, int64(50), txn.Points)

	// Re-evaluating the same order grants nothing new.
	granted, err = svc.CheckAndGrant(context.Background(), ord)
	require.NoError(t, err)
	require.Empty(t, granted)

	var count int64
	require.NoError(t, db.Model(&MemberBadge{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestBigSpenderRequiresThirtyDollarOrder(t *testing.T) {
	svc, orders, db := newTestService(t)
	require.NoError(t, db.Create(&member.Member{ID: "m1", Email: "m1@campus.edu", Tier: "bronze"}).Error)

	small := &order.Order{ID: "o1", MemberID: "m1", TotalPrice: 12, OrderedAt: time.Now().UTC()}
	require.NoError(t, orders.Save(context.Background(), small))
	granted, err := svc.CheckAndGrant(context.Background(), small)
	require.NoError(t, err)
	require.NotContains(t, slugs(granted), "big_spender")

	big := &order.Order{ID: "o2", MemberID: "m1", TotalPrice: 31.50, OrderedAt: time.Now().UTC()}
	require.NoError(t, orders.Save(context.Background(), big))
	granted, err = svc.CheckAndGrant(context.Background(), big)
	require.NoError(t, err)
	require.Contains(t, slugs(granted), "big_spender")
}

func TestRegularGrantsOnTenthOrder(t *testing.T) {
	svc, orders, db := newTestService(t)
	require.NoError(t, db.Create(&member.Member{ID: "m1", Email: "m1@campus.edu", Tier: "bronze"}).Error)

	var last *order.Order
	for i := 1; i <= 10; i++ {
		last = &order.Order{
			ID:         fmt.Sprintf("o%d", i),
			MemberID:   "m1",
			TotalPrice: 8,
			OrderedAt:  time.Now().UTC().Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, orders.Save(context.Background(), last))
	}

	granted, err := svc.CheckAndGrant(context.Background(), last)
	require.NoError(t, err)
	require.Contains(t, slugs(granted), "regular")

	grants, err := svc.MemberBadges(context.Background(), "m1")
	require.NoError(t, err)
	require.NotEmpty(t, grants)
	require.NotEmpty(t, grants[0].Badge.Name)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, _, db := newTestService(t)

	require.NoError(t, svc.Seed(context.Background()))
	require.NoError(t, svc.Seed(context.Background()))

	var count int64
	require.NoError(t, db.Model(&Badge{}).Count(&count).Error)
	require.Equal(t, int64(len(Catalog)), count)
}

func TestSeedCarriesTypeAndRarity(t *testing.T) {
	svc, _, db := newTestService(t)
	require.NoError(t, svc.Seed(context.Background()))

	var b Badge
	require.NoError(t, db.First(&b, "slug = ?", "hall_of_famer").Error)
	require.Equal(t, TypeMilestone, b.Type)
	require.Equal(t, RarityLegendary, b.Rarity)

	// Every catalog entry names both.
	for _, def := range Catalog {
		require.NotEmpty(t, def.Type, def.Slug)
		require.NotEmpty(t, def.Rarity, def.Slug)
	}
}

func TestGrantRollsBackWhenAwardFails(t *testing.T) {
	svc, orders, db := newTestService(t)

	// No member row, so paying the badge bonus fails inside the grant's
	// unit of work.
	ord := &order.Order{ID: "o1", MemberID: "ghost", TotalPrice: 9, OrderedAt: time.Now().UTC()}
	require.NoError(t, orders.Save(context.Background(), ord))

	_, err := svc.CheckAndGrant(context.Background(), ord)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&MemberBadge{}).Count(&count).Error)
	require.Zero(t, count)

	// Once the member exists, a retry grants and pays in full.
	require.NoError(t, db.Create(&member.Member{ID: "ghost", Email: "ghost@campus.edu", Tier: "bronze"}).Error)
	granted, err := svc.CheckAndGrant(context.Background(), ord)
	require.NoError(t, err)
	require.Contains(t, slugs(granted), "first_bite")

	var txn ledger.PointTransaction
	require.NoError(t, db.First(&txn, "member_id = ? AND event_type = ?", "ghost", ledger.EventBadgeBonus).Error)
	require.Equal(t, int64(50), txn.Points)
}

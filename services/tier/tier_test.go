package tier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestForPointsBoundaries(t *testing.T) {
	cases := []struct {
		points int64
		want   Tier
	}{
		{0, Bronze},
		{500, Bronze},
		{501, Silver},
		{1000, Silver},
		{1500, Silver},
		{1501, Gold},
		{10000, Gold},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, ForPoints(tc.points), "points=%d", tc.points)
	}
}

func TestMultiplier(t *testing.T) {
	require.Equal(t, 1.0, Bronze.Multiplier())
	require.Equal(t, 1.2, Silver.Multiplier())
	require.Equal(t, 1.5, Gold.Multiplier())
}

func TestParseUnknownFallsBackToBronze(t *testing.T) {
	require.Equal(t, Bronze, Parse("platinum"))
	require.Equal(t, Silver, Parse("silver"))
}

func TestRecomputePromotesAndDemotes(t *testing.T) {
	db := testutil.NewTestDB(t, &member.Member{})

	m := &member.Member{ID: "m1", Email: "m1@campus.edu", Tier: "bronze"}
	require.NoError(t, db.Create(m).Error)

	balance := int64(600)
	svc := NewService(ServiceParams{
		DB:      db,
		Balance: func(ctx context.Context, memberID string) (int64, error) { return balance, nil },
	})

	changed, next, err := svc.Recompute(context.Background(), "m1")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, Silver, next)

	// Idempotent when the balance has not moved.
	changed, next, err = svc.Recompute(context.Background(), "m1")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, Silver, next)

	// Demotion after points are spent.
	balance = 200
	changed, next, err = svc.Recompute(context.Background(), "m1")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, Bronze, next)

	var stored member.Member
	require.NoError(t, db.First(&stored, "id = ?", "m1").Error)
	require.Equal(t, "bronze", stored.Tier)
}

func TestRecomputeUnknownMember(t *testing.T) {
	db := testutil.NewTestDB(t, &member.Member{})

	svc := NewService(ServiceParams{
		DB:      db,
		Balance: func(ctx context.Context, memberID string) (int64, error) { return 0, nil },
	})

	_, _, err := svc.Recompute(context.Background(), "missing")
	require.Error(t, err)
}

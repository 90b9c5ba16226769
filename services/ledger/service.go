package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/pkg/db/option"
	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/pkg/rediskey"
	"campusgrill-loyalty/pkg/repository"
	"campusgrill-loyalty/pkg/sequence"
	"campusgrill-loyalty/services/coupon"
	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/tier"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("ledger.service",
	fx.Provide(
		NewService,
		provideBalanceFunc,
	),
)

func provideBalanceFunc(s *Service) tier.BalanceFunc {
	return s.Balance
}

// codeAttempts bounds the retry-until-unique sampling of coupon codes.
const codeAttempts = 5

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	seq  sequence.Generator
	cfg  config.LoyaltyConfig

	members      repository.Repository[member.Member]
	transactions repository.Repository[PointTransaction]
	redemptions  repository.Repository[coupon.Redemption]
	coupons      repository.Repository[coupon.Coupon]

	cache *redis.Client
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Seq    sequence.Generator
	Config *config.Config

	Cache *redis.Client `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		seq:  p.Seq,
		cfg:  p.Config.Loyalty,

		members:      repository.ProvideStore[member.Member](p.DB),
		transactions: repository.ProvideStore[PointTransaction](p.DB),
		redemptions:  repository.ProvideStore[coupon.Redemption](p.DB),
		coupons:      repository.ProvideStore[coupon.Coupon](p.DB),

		cache: p.Cache,
	}
}

// Earn appends a transaction and bumps the cached balance in one unit of
// work. The tier multiplier applies only to purchase events, and only when
// the caller asks for it; bonus awards pass applyMultiplier=false.
// Returns the signed points actually recorded.
func (s *Service) Earn(ctx context.Context, eventType EventType, memberID string, basePoints int64, description string, orderID *string, applyMultiplier bool) (int64, error) {
	var points int64
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		points, err = s.EarnTx(ctx, tx, eventType, memberID, basePoints, description, orderID, applyMultiplier)
		return err
	}); err != nil {
		return 0, err
	}
	return points, nil
}

// EarnTx is Earn inside the caller's transaction, so an award commits or
// rolls back together with the record that triggered it.
func (s *Service) EarnTx(ctx context.Context, tx *gorm.DB, eventType EventType, memberID string, basePoints int64, description string, orderID *string, applyMultiplier bool) (int64, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("member_id", memberID),
		zap.String("event_type", string(eventType)),
	)

	m, err := s.members.WithTrx(tx).FindOne(ctx, &member.Member{ID: memberID})
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, errutil.NotFound("member not found")
	}

	// A redelivered order event must not double-award the purchase.
	if eventType == EventPurchase && orderID != nil {
		existing, err := s.transactions.WithTrx(tx).FindOne(ctx, &PointTransaction{
			MemberID:  memberID,
			EventType: EventPurchase,
			OrderID:   orderID,
		})
		if err != nil {
			return 0, err
		}
		if existing != nil {
			zapLog.Info("purchase already recorded for order", zap.String("order_id", *orderID))
			return 0, nil
		}
	}

	points := basePoints
	if applyMultiplier && eventType == EventPurchase {
		mult := tier.Parse(m.Tier).Multiplier()
		points = int64(math.Round(float64(basePoints) * mult))
	}

	entry := &PointTransaction{
		ID:          s.node.Generate().String(),
		MemberID:    memberID,
		Points:      points,
		EventType:   eventType,
		Description: description,
		OrderID:     orderID,
	}
	if err := s.transactions.WithTrx(tx).Create(ctx, entry); err != nil {
		zapLog.Error("failed to append point transaction", zap.Error(err))
		return 0, err
	}
	if err := tx.Model(&member.Member{}).
		Where("id = ?", memberID).
		Update("total_points", gorm.Expr("total_points + ?", points)).Error; err != nil {
		zapLog.Error("failed to append point transaction", zap.Error(err))
		return 0, err
	}

	zapLog.Info("points recorded", zap.Int64("points", points))
	return points, nil
}

// Balance always recomputes by summing the member's transactions. The cached
// total on the member row may drift under concurrent writers; the ledger is
// truth, so the recomputed value is written back only when it differs.
func (s *Service) Balance(ctx context.Context, memberID string) (int64, error) {
	m, err := s.members.FindOne(ctx, &member.Member{ID: memberID})
	if err != nil {
		return 0, err
	}
	if m == nil {
		return 0, errutil.NotFound("member not found")
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&PointTransaction{}).
		Where("member_id = ?", memberID).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}

	if total != m.TotalPoints {
		zap.L().Warn("cached balance drifted from ledger",
			zap.String("member_id", memberID),
			zap.Int64("cached", m.TotalPoints),
			zap.Int64("recomputed", total),
		)
		if err := s.members.Update(ctx, memberID, map[string]any{"total_points": total}); err != nil {
			return 0, err
		}
	}

	return total, nil
}

// Redeem spends points on a reward from the fixed catalog. The redemption
// record, the issued coupon, and the debit transaction are created in a
// single transaction; an insufficient balance leaves no partial state.
// Returns the issued coupon code.
func (s *Service) Redeem(ctx context.Context, rewardType coupon.RewardType, memberID string, orderID *string) (string, error) {
	if !rewardType.Valid() {
		return "", errutil.BadRequest(fmt.Sprintf("unknown reward type %q", rewardType))
	}
	cost := coupon.Costs[rewardType]

	balance, err := s.Balance(ctx, memberID)
	if err != nil {
		return "", err
	}
	if balance < cost {
		return "", errutil.InsufficientPoints(
			fmt.Sprintf("reward costs %d points, balance is %d", cost, balance))
	}

	code, err := s.uniqueCouponCode(ctx)
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		redemption := &coupon.Redemption{
			ID:         s.node.Generate().String(),
			MemberID:   memberID,
			RewardType: rewardType,
			PointsCost: cost,
			OrderID:    orderID,
		}
		if err := s.redemptions.WithTrx(tx).Create(ctx, redemption); err != nil {
			return err
		}

		if err := s.coupons.WithTrx(tx).Create(ctx, &coupon.Coupon{
			ID:           s.node.Generate().String(),
			Code:         code,
			MemberID:     memberID,
			RedemptionID: redemption.ID,
			RewardType:   rewardType,
			ExpiryDate:   now.AddDate(0, 0, s.cfg.CouponValidDays),
		}); err != nil {
			return err
		}

		if err := s.transactions.WithTrx(tx).Create(ctx, &PointTransaction{
			ID:          s.node.Generate().String(),
			MemberID:    memberID,
			Points:      -cost,
			EventType:   EventRedemption,
			Description: fmt.Sprintf("Redeemed %s", rewardType),
			OrderID:     orderID,
		}); err != nil {
			return err
		}

		return tx.Model(&member.Member{}).
			Where("id = ?", memberID).
			Update("total_points", gorm.Expr("total_points - ?", cost)).Error
	}); err != nil {
		zap.L().Error("redeem failed",
			zap.String("member_id", memberID),
			zap.String("reward_type", string(rewardType)),
			zap.Error(err),
		)
		return "", err
	}

	zap.L().Info("reward redeemed",
		zap.String("member_id", memberID),
		zap.String("reward_type", string(rewardType)),
		zap.Int64("cost", cost),
	)

	return code, nil
}

// uniqueCouponCode samples random codes until one is unused. The unique
// index on coupon codes still backstops a race between two samplers.
func (s *Service) uniqueCouponCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := s.seq.NextCouponCode()
		if err != nil {
			return "", err
		}
		count, err := s.coupons.Count(ctx, &coupon.Coupon{Code: code})
		if err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errutil.Internal("could not generate a unique coupon code")
}

// RedemptionHistory lists a member's redemptions, newest first.
func (s *Service) RedemptionHistory(ctx context.Context, memberID string) ([]*coupon.Redemption, error) {
	return s.redemptions.Find(ctx, &coupon.Redemption{MemberID: memberID},
		option.WithSortBy(option.QuerySortBy{SortBy: "redeemed_at", OrderBy: "desc"}))
}

// Transactions lists a member's full ledger, oldest first.
func (s *Service) Transactions(ctx context.Context, memberID string) ([]*PointTransaction, error) {
	return s.transactions.Find(ctx, &PointTransaction{MemberID: memberID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at"}))
}

// MonthlyLeaderboard ranks members by points earned (positive entries only)
// in a calendar month. Results are cached in redis when a client is wired.
func (s *Service) MonthlyLeaderboard(ctx context.Context, month time.Month, year, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardSize
	}

	cacheKey := rediskey.BuildMonthlyLeaderboardKey(year, int(month), limit)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var cached []LeaderboardEntry
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var entries []LeaderboardEntry
	if err := s.db.WithContext(ctx).
		Model(&PointTransaction{}).
		Select("point_transactions.member_id AS member_id, members.display_name AS display_name, SUM(point_transactions.points) AS points").
		Joins("JOIN members ON members.id = point_transactions.member_id").
		Where("point_transactions.points > 0").
		Where("point_transactions.created_at >= ? AND point_transactions.created_at < ?", start, end).
		Group("point_transactions.member_id, members.display_name").
		Order("points DESC").
		Limit(limit).
		Scan(&entries).Error; err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			ttl := time.Duration(s.cfg.LeaderboardTTLSec) * time.Second
			if err := s.cache.Set(ctx, cacheKey, raw, ttl).Err(); err != nil {
				zap.L().Warn("failed to cache leaderboard", zap.Error(err))
			}
		}
	}

	return entries, nil
}

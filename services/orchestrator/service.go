package orchestrator

import (
	"context"
	"fmt"
	"math"

	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/services/badge"
	"campusgrill-loyalty/services/challenge"
	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/order"
	"campusgrill-loyalty/services/tier"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("orchestrator.service",
	fx.Provide(NewService),
)

type Service struct {
	cfg config.LoyaltyConfig

	orders     *order.Service
	ledger     *ledger.Service
	badges     *badge.Service
	challenges *challenge.Service
	tiers      *tier.Service
}

type ServiceParams struct {
	fx.In
	Config     *config.Config
	Orders     *order.Service
	Ledger     *ledger.Service
	Badges     *badge.Service
	Challenges *challenge.Service
	Tiers      *tier.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		cfg:        p.Config.Loyalty,
		orders:     p.Orders,
		ledger:     p.Ledger,
		badges:     p.Badges,
		challenges: p.Challenges,
		tiers:      p.Tiers,
	}
}

// Result summarizes what one paid order produced.
type Result struct {
	OrderID        string   `json:"order_id"`
	MemberID       string   `json:"member_id"`
	PointsEarned   int64    `json:"points_earned"`
	BadgesGranted  []string `json:"badges_granted,omitempty"`
	DailyCompleted []string `json:"daily_completed,omitempty"`
	WeeklyComplete []string `json:"weekly_completed,omitempty"`
	TierChanged    bool     `json:"tier_changed"`
	Tier           string   `json:"tier"`
}

// ProcessOrderPaid runs the full evaluation pipeline for a paid order:
// persist the order, award base purchase points with the tier multiplier,
// then badges, daily bonuses, weekly challenges, and a tier refresh. A
// failure in any one step is logged and the rest still run; one broken
// evaluator must not cost the member their purchase points or vice versa.
func (s *Service) ProcessOrderPaid(ctx context.Context, ord *order.Order) (*Result, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("order_id", ord.ID),
		zap.String("member_id", ord.MemberID),
	)

	if err := s.orders.Save(ctx, ord); err != nil {
		// Without the order row nothing downstream can be evaluated.
		zapLog.Error("failed to persist paid order", zap.Error(err))
		return nil, err
	}

	result := &Result{OrderID: ord.ID, MemberID: ord.MemberID}

	base := int64(math.Round(ord.TotalPrice * float64(s.cfg.PointsPerDollar)))
	points, err := s.ledger.Earn(ctx, ledger.EventPurchase, ord.MemberID, base,
		fmt.Sprintf("Order %s", ord.ID), &ord.ID, true)
	if err != nil {
		zapLog.Error("purchase points step failed", zap.Error(err))
	} else {
		result.PointsEarned += points
	}

	if granted, err := s.badges.CheckAndGrant(ctx, ord); err != nil {
		zapLog.Error("badge step failed", zap.Error(err))
	} else {
		for _, b := range granted {
			result.BadgesGranted = append(result.BadgesGranted, b.Slug)
			result.PointsEarned += b.PointsReward
		}
	}

	if completed, err := s.challenges.CheckDaily(ctx, ord); err != nil {
		zapLog.Error("daily bonus step failed", zap.Error(err))
	} else {
		for _, b := range completed {
			result.DailyCompleted = append(result.DailyCompleted, b.ConditionKey)
			result.PointsEarned += b.PointsReward
		}
	}

	if completed, err := s.challenges.CheckWeekly(ctx, ord); err != nil {
		zapLog.Error("weekly challenge step failed", zap.Error(err))
	} else {
		for _, c := range completed {
			result.WeeklyComplete = append(result.WeeklyComplete, c.ConditionKey)
			result.PointsEarned += c.PointsReward
		}
	}

	if changed, current, err := s.tiers.Recompute(ctx, ord.MemberID); err != nil {
		zapLog.Error("tier refresh step failed", zap.Error(err))
	} else {
		result.TierChanged = changed
		result.Tier = string(current)
	}

	zapLog.Info("order evaluation complete",
		zap.Int64("points_earned", result.PointsEarned),
		zap.Int("badges", len(result.BadgesGranted)),
		zap.Int("daily", len(result.DailyCompleted)),
		zap.Int("weekly", len(result.WeeklyComplete)),
	)

	return result, nil
}

package challenge

import (
	"context"
	"math/rand"
	"time"

	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/pkg/repository"
	"campusgrill-loyalty/services/ledger"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("challenge.service",
	fx.Provide(
		NewService,
		NewScheduler,
	),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	cfg  config.LoyaltyConfig
	loc  *time.Location
	rng  *rand.Rand

	ledger *ledger.Service

	bonuses    repository.Repository[DailyBonus]
	challenges repository.Repository[WeeklyChallenge]
	progress   repository.Repository[Progress]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Config   *config.Config
	Location *time.Location
	Ledger   *ledger.Service

	Rand *rand.Rand `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	rng := p.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		db:     p.DB,
		node:   p.Node,
		cfg:    p.Config.Loyalty,
		loc:    p.Location,
		rng:    rng,
		ledger: p.Ledger,

		bonuses:    repository.ProvideStore[DailyBonus](p.DB),
		challenges: repository.ProvideStore[WeeklyChallenge](p.DB),
		progress:   repository.ProvideStore[Progress](p.DB),
	}
}

// GenerateDaily tops up the day's bonuses to the configured count, drawing
// distinct templates from the catalog. Calling it again for the same day is
// a no-op; two generators racing are reconciled by the unique index on
// (bonus_date, condition_key).
func (s *Service) GenerateDaily(ctx context.Context, day time.Time) ([]*DailyBonus, error) {
	date := day.In(s.loc).Format(DateFormat)

	existing, err := s.bonuses.Find(ctx, &DailyBonus{BonusDate: date})
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.cfg.MaxDailyBonuses {
		return existing, nil
	}

	taken := make(map[string]bool, len(existing))
	for _, b := range existing {
		taken[b.ConditionKey] = true
	}

	for _, idx := range s.rng.Perm(len(DailyCatalog)) {
		if len(existing) >= s.cfg.MaxDailyBonuses {
			break
		}
		tpl := DailyCatalog[idx]
		if taken[tpl.ConditionKey] {
			continue
		}
		b := &DailyBonus{
			ID:           s.node.Generate().String(),
			BonusDate:    date,
			Description:  tpl.Description,
			ConditionKey: tpl.ConditionKey,
			PointsReward: tpl.Points,
			Active:       true,
		}
		if err := s.bonuses.Create(ctx, b); err != nil {
			// Lost a race to another generator for this key.
			zap.L().Warn("daily bonus insert skipped",
				zap.String("date", date),
				zap.String("condition_key", tpl.ConditionKey),
				zap.Error(err),
			)
			taken[tpl.ConditionKey] = true
			continue
		}
		taken[tpl.ConditionKey] = true
		existing = append(existing, b)
	}

	return existing, nil
}

// GenerateWeekly does for the week containing t what GenerateDaily does for
// a day.
func (s *Service) GenerateWeekly(ctx context.Context, t time.Time) ([]*WeeklyChallenge, error) {
	weekStart, weekEnd := WeekBounds(t.In(s.loc))

	existing, err := s.challenges.Find(ctx, &WeeklyChallenge{WeekStart: weekStart})
	if err != nil {
		return nil, err
	}
	if len(existing) >= s.cfg.MaxWeeklyChall {
		return existing, nil
	}

	taken := make(map[string]bool, len(existing))
	for _, c := range existing {
		taken[c.ConditionKey] = true
	}

	for _, idx := range s.rng.Perm(len(WeeklyCatalog)) {
		if len(existing) >= s.cfg.MaxWeeklyChall {
			break
		}
		tpl := WeeklyCatalog[idx]
		if taken[tpl.ConditionKey] {
			continue
		}
		c := &WeeklyChallenge{
			ID:           s.node.Generate().String(),
			WeekStart:    weekStart,
			WeekEnd:      weekEnd,
			Description:  tpl.Description,
			ConditionKey: tpl.ConditionKey,
			Target:       tpl.Target,
			PointsReward: tpl.Points,
			Active:       true,
		}
		if err := s.challenges.Create(ctx, c); err != nil {
			zap.L().Warn("weekly challenge insert skipped",
				zap.String("week_start", weekStart),
				zap.String("condition_key", tpl.ConditionKey),
				zap.Error(err),
			)
			taken[tpl.ConditionKey] = true
			continue
		}
		taken[tpl.ConditionKey] = true
		existing = append(existing, c)
	}

	return existing, nil
}

// TodayBonuses lists the active bonuses for the calendar day containing now,
// topping up generation first so a read after a missed scheduler run still
// converges on a full slate.
func (s *Service) TodayBonuses(ctx context.Context, now time.Time) ([]*DailyBonus, error) {
	if _, err := s.GenerateDaily(ctx, now); err != nil {
		return nil, err
	}
	return s.bonuses.Find(ctx, &DailyBonus{
		BonusDate: now.In(s.loc).Format(DateFormat),
		Active:    true,
	})
}

// CurrentWeekly lists the active challenges for the week containing now,
// generating them on demand like TodayBonuses does.
func (s *Service) CurrentWeekly(ctx context.Context, now time.Time) ([]*WeeklyChallenge, error) {
	if _, err := s.GenerateWeekly(ctx, now); err != nil {
		return nil, err
	}
	weekStart, _ := WeekBounds(now.In(s.loc))
	return s.challenges.Find(ctx, &WeeklyChallenge{
		WeekStart: weekStart,
		Active:    true,
	})
}

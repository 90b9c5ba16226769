package badge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campusgrill-loyalty/pkg/repository"
	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/order"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("badge.service",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	loc  *time.Location

	ledger *ledger.Service
	orders *order.Service

	badges       repository.Repository[Badge]
	memberBadges repository.Repository[MemberBadge]

	seedOnce sync.Once
	seedErr  error
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Location *time.Location
	Ledger   *ledger.Service
	Orders   *order.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		loc:    p.Location,
		ledger: p.Ledger,
		orders: p.Orders,

		badges:       repository.ProvideStore[Badge](p.DB),
		memberBadges: repository.ProvideStore[MemberBadge](p.DB),
	}
}

// Seed upserts the catalog into the badges table. Runs once per process;
// safe to call from every evaluation.
func (s *Service) Seed(ctx context.Context) error {
	s.seedOnce.Do(func() {
		for _, def := range Catalog {
			existing, err := s.badges.FindOne(ctx, &Badge{Slug: def.Slug})
			if err != nil {
				s.seedErr = err
				return
			}
			if existing != nil {
				continue
			}
			if err := s.badges.Create(ctx, &Badge{
				ID:           s.node.Generate().String(),
				Slug:         def.Slug,
				Name:         def.Name,
				Description:  def.Description,
				Type:         def.Type,
				Rarity:       def.Rarity,
				PointsReward: def.Points,
			}); err != nil {
				// Another process seeded this slug first.
				zap.L().Warn("badge seed skipped", zap.String("slug", def.Slug), zap.Error(err))
			}
		}
	})
	return s.seedErr
}

// CheckAndGrant evaluates the whole catalog against the member's history
// after an order. Already-owned badges are skipped; each new grant awards
// its fixed bonus exactly once. Returns the newly granted badges.
func (s *Service) CheckAndGrant(ctx context.Context, ord *order.Order) ([]*Badge, error) {
	if err := s.Seed(ctx); err != nil {
		return nil, err
	}

	history, err := s.orders.HistoryForMember(ctx, ord.MemberID)
	if err != nil {
		return nil, err
	}
	facts := Facts{Order: ord, History: history, Loc: s.loc}

	owned, err := s.memberBadges.Find(ctx, &MemberBadge{MemberID: ord.MemberID})
	if err != nil {
		return nil, err
	}
	has := make(map[string]bool, len(owned))
	for _, mb := range owned {
		has[mb.BadgeID] = true
	}

	var granted []*Badge
	for _, def := range Catalog {
		b, err := s.badges.FindOne(ctx, &Badge{Slug: def.Slug})
		if err != nil {
			return granted, err
		}
		if b == nil || has[b.ID] {
			continue
		}
		if !def.Granted(facts) {
			continue
		}

		// The grant and its bonus commit or roll back together; a crash
		// between them must not leave an unpaid badge.
		var grantErr error
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.memberBadges.WithTrx(tx).Create(ctx, &MemberBadge{
				ID:       s.node.Generate().String(),
				MemberID: ord.MemberID,
				BadgeID:  b.ID,
			}); err != nil {
				grantErr = err
				return err
			}
			_, err := s.ledger.EarnTx(ctx, tx, ledger.EventBadgeBonus, ord.MemberID, b.PointsReward,
				fmt.Sprintf("Badge earned: %s", b.Name), &ord.ID, false)
			return err
		}); err != nil {
			if grantErr != nil {
				// Concurrent evaluation granted it first; the unique index on
				// (member_id, badge_id) keeps the grant single.
				zap.L().Warn("badge grant skipped",
					zap.String("member_id", ord.MemberID),
					zap.String("slug", def.Slug),
					zap.Error(grantErr),
				)
				continue
			}
			return granted, err
		}
		granted = append(granted, b)

		zap.L().Info("badge granted",
			zap.String("member_id", ord.MemberID),
			zap.String("slug", def.Slug),
			zap.Int64("points", b.PointsReward),
		)
	}

	return granted, nil
}

// MemberBadges lists a member's badges, newest first, definitions included.
func (s *Service) MemberBadges(ctx context.Context, memberID string) ([]*MemberBadge, error) {
	var grants []*MemberBadge
	if err := s.db.WithContext(ctx).
		Preload("Badge").
		Where("member_id = ?", memberID).
		Order("earned_at DESC").
		Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

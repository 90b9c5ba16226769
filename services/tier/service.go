package tier

import (
	"context"

	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/pkg/repository"
	"campusgrill-loyalty/services/member"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("tier.service",
	fx.Provide(NewService),
)

// BalanceFunc recomputes a member's canonical balance from the ledger.
// Provided by the ledger service through fx.
type BalanceFunc func(ctx context.Context, memberID string) (int64, error)

type Service struct {
	db      *gorm.DB
	balance BalanceFunc

	members repository.Repository[member.Member]
}

type ServiceParams struct {
	fx.In
	DB      *gorm.DB
	Balance BalanceFunc
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:      p.DB,
		balance: p.Balance,

		members: repository.ProvideStore[member.Member](p.DB),
	}
}

// Current returns the member's tier recomputed from the ledger balance.
func (s *Service) Current(ctx context.Context, memberID string) (Tier, error) {
	total, err := s.balance(ctx, memberID)
	if err != nil {
		return "", err
	}
	return ForPoints(total), nil
}

// Recompute refreshes the cached tier from the canonical balance. It is
// idempotent and reports whether the tier changed in either direction.
func (s *Service) Recompute(ctx context.Context, memberID string) (bool, Tier, error) {
	m, err := s.members.FindOne(ctx, &member.Member{ID: memberID})
	if err != nil {
		return false, "", err
	}
	if m == nil {
		return false, "", errutil.NotFound("member not found")
	}

	total, err := s.balance(ctx, memberID)
	if err != nil {
		return false, "", err
	}

	next := ForPoints(total)
	if Parse(m.Tier) == next {
		return false, next, nil
	}

	if err := s.members.Update(ctx, m.ID, map[string]any{"tier": string(next)}); err != nil {
		return false, "", err
	}

	zap.L().Info("member tier changed",
		zap.String("member_id", memberID),
		zap.String("from", m.Tier),
		zap.String("to", string(next)),
	)

	return true, next, nil
}

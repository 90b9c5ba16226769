package member

import (
	"context"

	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("member.service",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	members repository.Repository[Member]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,

		members: repository.ProvideStore[Member](p.DB),
	}
}

func (s *Service) Register(ctx context.Context, email, displayName string) (*Member, error) {
	if email == "" {
		return nil, errutil.BadRequest("email is required")
	}

	m := &Member{
		ID:          s.node.Generate().String(),
		Email:       email,
		DisplayName: displayName,
		Tier:        "bronze",
	}
	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, memberID string) (*Member, error) {
	m, err := s.members.FindOne(ctx, &Member{ID: memberID})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errutil.NotFound("member not found")
	}
	return m, nil
}

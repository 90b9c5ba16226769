package order

import (
	"context"

	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var Module = fx.Module("order.service",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	orders repository.Repository[Order]
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

		orders: repository.ProvideStore[Order](p.DB),
	}
}

// Save upserts a paid order and its items. The collaborator may redeliver
// the same order; redelivery must not duplicate rows.
func (s *Service) Save(ctx context.Context, o *Order) error {
	if o.ID == "" {
		return errutil.BadRequest("order id is required")
	}
	if o.MemberID == "" {
		return errutil.BadRequest("order member_id is required")
	}

	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = s.node.Generate().String()
		}
		o.Items[i].OrderID = o.ID
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Omit("Items").Create(o).Error; err != nil {
			return err
		}
		if len(o.Items) == 0 {
			return nil
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&o.Items).Error; err != nil {
			zap.L().Warn("failed to persist order items", zap.String("order_id", o.ID), zap.Error(err))
			return err
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, orderID string) (*Order, error) {
	var o Order
	if err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", orderID).First(&o).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errutil.NotFound("order not found")
		}
		return nil, err
	}
	return &o, nil
}

// HistoryForMember returns every stored order for a member, oldest first,
// items preloaded. Badge predicates scan this in full.
func (s *Service) HistoryForMember(ctx context.Context, memberID string) ([]*Order, error) {
	var orders []*Order
	if err := s.db.WithContext(ctx).
		Preload("Items").
		Where("member_id = ?", memberID).
		Order("ordered_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Service) CountForMember(ctx context.Context, memberID string) (int64, error) {
	return s.orders.Count(ctx, &Order{MemberID: memberID})
}

// MarkPriority flags an order for queue-skipping. Used by the skip_queue
// coupon reward.
func (s *Service) MarkPriority(ctx context.Context, orderID string) error {
	return s.db.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Update("priority", true).Error
}

package coupon

import (
	"context"
	"math"
	"time"

	"campusgrill-loyalty/pkg/db/option"
	"campusgrill-loyalty/pkg/errutil"
	"campusgrill-loyalty/pkg/repository"
	"campusgrill-loyalty/services/order"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("coupon.service",
	fx.Provide(NewService),
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	loc  *time.Location

	coupons repository.Repository[Coupon]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Location *time.Location
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		loc:  p.Location,

		coupons: repository.ProvideStore[Coupon](p.DB),
	}
}

// ApplyResult is what the storefront needs to adjust the price it shows.
type ApplyResult struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Priority bool    `json:"priority"`
}

// Validate checks a coupon for ownership, reuse, expiry, and double
// application, without mutating anything.
func (s *Service) Validate(ctx context.Context, code, memberID string, orderID *string) (*Coupon, error) {
	c, err := s.coupons.FindOne(ctx, &Coupon{Code: code})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("coupon not found")
	}
	if c.MemberID != memberID {
		return nil, errutil.Forbidden("coupon belongs to another member")
	}
	if c.IsUsed {
		return nil, errutil.CouponUsed("coupon has already been used")
	}
	if c.Expired(time.Now(), s.loc) {
		return nil, errutil.CouponExpired("coupon has expired")
	}
	if orderID != nil && c.UsedOrderID != nil && *c.UsedOrderID == *orderID {
		return nil, errutil.CouponApplied("coupon is already applied to this order")
	}
	return c, nil
}

// Apply re-validates, computes the reward discount against the order, and
// pins the coupon to the order. The coupon stays unspent until the payment
// collaborator calls Confirm; a failed payment calls Release instead.
func (s *Service) Apply(ctx context.Context, code, memberID string, ord *order.Order) (*ApplyResult, error) {
	c, err := s.Validate(ctx, code, memberID, &ord.ID)
	if err != nil {
		return nil, err
	}
	if ord.MemberID != memberID {
		return nil, errutil.Forbidden("order belongs to another member")
	}

	result := &ApplyResult{Code: c.Code}

	switch c.RewardType {
	case FreeTopping:
		result.Discount = ord.CategoryTotal(order.CategoryTopping)
	case FreePattyUpgrade:
		result.Discount = ord.CategoryTotal(order.CategoryPatty)
	case FreePremiumSauce:
		// No sauce on the order is still a successful no-op apply.
		result.Discount = ord.CategoryTotal(order.CategorySauce)
	case ThreeDollarOff, FiveDollarOff:
		result.Discount = math.Min(fixedDiscounts[c.RewardType], ord.TotalPrice)
	case SkipQueue:
		result.Priority = true
	default:
		return nil, errutil.BadRequest("unknown reward type")
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.coupons.WithTrx(tx).Update(ctx, c.ID, map[string]any{
			"used_order_id": ord.ID,
		}); err != nil {
			return err
		}
		if result.Priority {
			return tx.Model(&order.Order{}).Where("id = ?", ord.ID).Update("priority", true).Error
		}
		return nil
	}); err != nil {
		return nil, err
	}

	zap.L().Info("coupon applied to order",
		zap.String("code", c.Code),
		zap.String("order_id", ord.ID),
		zap.Float64("discount", result.Discount),
	)

	return result, nil
}

// Confirm marks a pending coupon as spent after its owning payment
// succeeded. Only the payment collaborator calls this.
func (s *Service) Confirm(ctx context.Context, code, orderID string) error {
	c, err := s.coupons.FindOne(ctx, &Coupon{Code: code})
	if err != nil {
		return err
	}
	if c == nil {
		return errutil.NotFound("coupon not found")
	}
	if c.IsUsed {
		// Redelivered confirmation; nothing to do.
		return nil
	}
	if c.UsedOrderID == nil || *c.UsedOrderID != orderID {
		return errutil.Conflict("coupon is not pending on this order")
	}

	now := time.Now()
	return s.coupons.Update(ctx, c.ID, map[string]any{
		"is_used": true,
		"used_at": now,
	})
}

// Release clears the pending link after a failed or abandoned payment so
// the coupon can be retried on another order.
func (s *Service) Release(ctx context.Context, code, orderID string) error {
	c, err := s.coupons.FindOne(ctx, &Coupon{Code: code})
	if err != nil {
		return err
	}
	if c == nil {
		return errutil.NotFound("coupon not found")
	}
	if c.IsUsed {
		return errutil.CouponUsed("coupon has already been used")
	}
	if c.UsedOrderID == nil || *c.UsedOrderID != orderID {
		// Already released or re-applied elsewhere.
		return nil
	}

	return s.coupons.Update(ctx, c.ID, map[string]any{
		"used_order_id": gorm.Expr("NULL"),
	})
}

// ForMember lists a member's coupons, newest first.
func (s *Service) ForMember(ctx context.Context, memberID string) ([]*Coupon, error) {
	return s.coupons.Find(ctx, &Coupon{MemberID: memberID},
		option.WithSortBy(option.QuerySortBy{SortBy: "created_at", OrderBy: "desc"}))
}

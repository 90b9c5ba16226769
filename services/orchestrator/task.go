package orchestrator

import (
	"context"
	"encoding/json"
	"time"

	"campusgrill-loyalty/services/coupon"
	"campusgrill-loyalty/services/order"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Task types published by the order/payment collaborators.
const (
	TaskOrderPaid        = "loyalty:order_paid"
	TaskPaymentConfirmed = "loyalty:payment_confirmed"
	TaskPaymentFailed    = "loyalty:payment_failed"
)

// OrderPaidPayload mirrors the collaborator's paid-order event.
type OrderPaidPayload struct {
	OrderID       string           `json:"order_id"`
	MemberID      string           `json:"member_id"`
	TotalPrice    float64          `json:"total_price"`
	OriginalTotal float64          `json:"original_total"`
	OrderedAt     time.Time        `json:"ordered_at"`
	Metadata      json.RawMessage  `json:"metadata,omitempty"`
	Items         []OrderItemInput `json:"items"`
}

type OrderItemInput struct {
	MenuItemID *string `json:"menu_item_id,omitempty"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
}

// PaymentPayload settles a pending coupon after the payment outcome is known.
type PaymentPayload struct {
	OrderID    string `json:"order_id"`
	CouponCode string `json:"coupon_code"`
}

func (p *OrderPaidPayload) ToOrder() *order.Order {
	o := &order.Order{
		ID:            p.OrderID,
		MemberID:      p.MemberID,
		TotalPrice:    p.TotalPrice,
		OriginalTotal: p.OriginalTotal,
		OrderedAt:     p.OrderedAt.UTC(),
		Metadata:      datatypes.JSON(p.Metadata),
	}
	for _, it := range p.Items {
		o.Items = append(o.Items, order.OrderItem{
			OrderID:    p.OrderID,
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Category:   order.Category(it.Category),
			Price:      it.Price,
			Quantity:   it.Quantity,
		})
	}
	return o
}

type TaskHandlerParams struct {
	fx.In
	Mux     *asynq.ServeMux
	Service *Service
	Coupons *coupon.Service
}

// RegisterTaskHandlers wires the collaborator events into the pipeline.
// Invoked from the fx app.
func RegisterTaskHandlers(p TaskHandlerParams) {
	p.Mux.HandleFunc(TaskOrderPaid, func(ctx context.Context, t *asynq.Task) error {
		var payload OrderPaidPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			zap.L().Error("bad order_paid payload", zap.Error(err))
			return nil // malformed payloads are not retryable
		}
		_, err := p.Service.ProcessOrderPaid(ctx, payload.ToOrder())
		return err
	})

	p.Mux.HandleFunc(TaskPaymentConfirmed, func(ctx context.Context, t *asynq.Task) error {
		var payload PaymentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			zap.L().Error("bad payment_confirmed payload", zap.Error(err))
			return nil
		}
		if payload.CouponCode == "" {
			return nil
		}
		return p.Coupons.Confirm(ctx, payload.CouponCode, payload.OrderID)
	})

	p.Mux.HandleFunc(TaskPaymentFailed, func(ctx context.Context, t *asynq.Task) error {
		var payload PaymentPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			zap.L().Error("bad payment_failed payload", zap.Error(err))
			return nil
		}
		if payload.CouponCode == "" {
			return nil
		}
		return p.Coupons.Release(ctx, payload.CouponCode, payload.OrderID)
	})
}

package coupon

import "time"

// RewardType names a redeemable reward from the fixed catalog.
type RewardType string

const (
	FreeTopping      RewardType = "free_topping"
	FreePremiumSauce RewardType = "free_premium_sauce"
	FreePattyUpgrade RewardType = "free_patty_upgrade"
	ThreeDollarOff   RewardType = "three_dollar_off"
	SkipQueue        RewardType = "skip_queue"
	FiveDollarOff    RewardType = "five_dollar_off"
)

// Costs is the point price of each reward.
var Costs = map[RewardType]int64{
	FreeTopping:      100,
	FreePremiumSauce: 125,
	FreePattyUpgrade: 250,
	ThreeDollarOff:   300,
	SkipQueue:        300,
	FiveDollarOff:    500,
}

// fixedDiscounts holds the dollar value of the flat-amount rewards.
var fixedDiscounts = map[RewardType]float64{
	ThreeDollarOff: 3.00,
	FiveDollarOff:  5.00,
}

func (t RewardType) Valid() bool {
	_, ok := Costs[t]
	return ok
}

// Redemption records the act of spending points for a reward. Created
// atomically with its point debit and exactly one Coupon.
type Redemption struct {
	ID         string     `gorm:"column:id;primaryKey"`
	MemberID   string     `gorm:"column:member_id;index;not null"`
	RewardType RewardType `gorm:"column:reward_type;type:varchar(30);not null"`
	PointsCost int64      `gorm:"column:points_cost;not null"`
	OrderID    *string    `gorm:"column:order_id"`
	RedeemedAt time.Time  `gorm:"column:redeemed_at;autoCreateTime"`
}

// State is the coupon's position in its lifecycle. Transitions happen only
// through the service: Issued -> Pending on apply, Pending -> Used on the
// payment collaborator's confirm, Pending -> Issued on its rollback.
type State string

const (
	StateIssued  State = "issued"
	StatePending State = "pending"
	StateUsed    State = "used"
)

type Coupon struct {
	ID           string     `gorm:"column:id;primaryKey"`
	Code         string     `gorm:"column:code;uniqueIndex;not null"`
	MemberID     string     `gorm:"column:member_id;index;not null"`
	RedemptionID string     `gorm:"column:redemption_id;uniqueIndex;not null"`
	RewardType   RewardType `gorm:"column:reward_type;type:varchar(30);not null"`
	IsUsed       bool       `gorm:"column:is_used;default:false"`
	UsedAt       *time.Time `gorm:"column:used_at"`
	UsedOrderID  *string    `gorm:"column:used_order_id"`
	ExpiryDate   time.Time  `gorm:"column:expiry_date;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (c *Coupon) State() State {
	switch {
	case c.IsUsed:
		return StateUsed
	case c.UsedOrderID != nil:
		return StatePending
	default:
		return StateIssued
	}
}

// Expired compares the expiry against the calendar date of now in the
// storefront's reference timezone: a coupon expiring today is still valid.
func (c *Coupon) Expired(now time.Time, loc *time.Location) bool {
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return c.ExpiryDate.In(loc).Before(today)
}

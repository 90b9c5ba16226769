package ledger

import "time"

// EventType classifies why points moved.
type EventType string

const (
	EventPurchase        EventType = "purchase"
	EventDailyBonus      EventType = "daily_bonus"
	EventWeeklyChallenge EventType = "weekly_challenge"
	EventBadgeBonus      EventType = "badge_bonus"
	EventRedemption      EventType = "redemption"
	EventAdjustment      EventType = "adjustment"
)

func (t EventType) String() string {
	switch t {
	case EventPurchase, EventDailyBonus, EventWeeklyChallenge, EventBadgeBonus, EventRedemption, EventAdjustment:
		return string(t)
	default:
		return ""
	}
}

// PointTransaction is an immutable signed ledger entry. The sum over a
// member's transactions is the canonical balance; the cached total on the
// member row is only a read optimization.
type PointTransaction struct {
	ID          string    `gorm:"column:id;primaryKey"`
	MemberID    string    `gorm:"column:member_id;index;not null"`
	Points      int64     `gorm:"column:points;not null"` // +ve for earn, -ve for redeem
	EventType   EventType `gorm:"column:event_type;type:varchar(30);not null"`
	Description string    `gorm:"column:description;type:text"`
	OrderID     *string   `gorm:"column:order_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at;index;autoCreateTime"`
}

// LeaderboardEntry is one row of the monthly points ranking.
type LeaderboardEntry struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	Points      int64  `json:"points"`
	Rank        int    `json:"rank"`
}

package badge

import "time"

// Type groups badges by what their predicate looks at.
type Type string

const (
	TypeMilestone Type = "milestone"
	TypeTime      Type = "time"
	TypeSpending  Type = "spending"
	TypeVariety   Type = "variety"
)

// Rarity ranks how hard a badge is to earn; display-only.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityLegendary Rarity = "legendary"
)

// Badge is a permanent achievement definition. Rows are seeded from the
// in-code catalog; the slug is the stable identity.
type Badge struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Slug         string    `gorm:"column:slug;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description;type:text"`
	Type         Type      `gorm:"column:type;type:varchar(20);not null"`
	Rarity       Rarity    `gorm:"column:rarity;type:varchar(20);not null"`
	PointsReward int64     `gorm:"column:points_reward;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// MemberBadge grants a badge to a member, once. The composite unique index
// makes a concurrent double grant a constraint violation instead of a
// duplicate.
type MemberBadge struct {
	ID        string    `gorm:"column:id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;uniqueIndex:idx_member_badge;not null"`
	BadgeID   string    `gorm:"column:badge_id;uniqueIndex:idx_member_badge;not null"`
	Badge     Badge     `gorm:"foreignKey:BadgeID;references:ID"`
	EarnedAt  time.Time `gorm:"column:earned_at;autoCreateTime"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

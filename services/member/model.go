package member

import "time"

// Member is a storefront customer enrolled in the rewards program.
//
// Tier and TotalPoints are caches derived from the points ledger. They are
// read optimizations only; balance reads always recompute from the ledger
// and write back on drift.
type Member struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Email       string    `gorm:"column:email;uniqueIndex;not null"`
	DisplayName string    `gorm:"column:display_name"`
	Tier        string    `gorm:"column:tier;type:varchar(20);default:'bronze'"`
	TotalPoints int64     `gorm:"column:total_points;default:0"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

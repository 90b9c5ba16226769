package challenge

import "time"

// DateFormat is the canonical form for period keys (calendar dates in the
// reference timezone).
const DateFormat = "2006-01-02"

// DailyBonus is one generated instance of a daily challenge template.
// Several may share a date, but never a condition key.
type DailyBonus struct {
	ID           string    `gorm:"column:id;primaryKey"`
	BonusDate    string    `gorm:"column:bonus_date;type:varchar(10);uniqueIndex:idx_daily_date_key;not null"`
	Description  string    `gorm:"column:description;type:text;not null"`
	ConditionKey string    `gorm:"column:condition_key;type:varchar(50);uniqueIndex:idx_daily_date_key;not null"`
	PointsReward int64     `gorm:"column:points_reward;not null"`
	Active       bool      `gorm:"column:active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// WeeklyChallenge is one generated instance of a weekly challenge template,
// keyed by its week window.
type WeeklyChallenge struct {
	ID           string    `gorm:"column:id;primaryKey"`
	WeekStart    string    `gorm:"column:week_start;type:varchar(10);uniqueIndex:idx_weekly_start_key;not null"`
	WeekEnd      string    `gorm:"column:week_end;type:varchar(10);not null"`
	Description  string    `gorm:"column:description;type:text;not null"`
	ConditionKey string    `gorm:"column:condition_key;type:varchar(50);uniqueIndex:idx_weekly_start_key;not null"`
	Target       int       `gorm:"column:target;not null;default:1"`
	PointsReward int64     `gorm:"column:points_reward;not null"`
	Active       bool      `gorm:"column:active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Progress tracks one member against one daily bonus or one weekly
// challenge. Completed is a one-way latch; Progress never decreases.
type Progress struct {
	ID           string     `gorm:"column:id;primaryKey"`
	MemberID     string     `gorm:"column:member_id;uniqueIndex:idx_progress_daily;uniqueIndex:idx_progress_weekly;not null"`
	DailyBonusID *string    `gorm:"column:daily_bonus_id;uniqueIndex:idx_progress_daily"`
	ChallengeID  *string    `gorm:"column:challenge_id;uniqueIndex:idx_progress_weekly"`
	Progress     int        `gorm:"column:progress;not null;default:0"`
	Target       int        `gorm:"column:target;not null;default:1"`
	Completed    bool       `gorm:"column:completed;default:false"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// WeekBounds returns the Monday and Sunday of the week containing t,
// as dates in t's location.
func WeekBounds(t time.Time) (string, string) {
	weekday := int(t.Weekday())
	if weekday == 0 { // Sunday
		weekday = 7
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(DateFormat), sunday.Format(DateFormat)
}

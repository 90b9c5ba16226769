package challenge

import (
	"context"
	"fmt"

	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/order"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckDaily evaluates every active bonus for the order's local day. Each
// bonus a member completes is latched and awarded at most once; one order
// may complete several bonuses. Returns the bonuses completed by this order.
func (s *Service) CheckDaily(ctx context.Context, ord *order.Order) ([]*DailyBonus, error) {
	facts := BuildFacts(ord, s.loc)
	date := ord.OrderedAt.In(s.loc).Format(DateFormat)

	bonuses, err := s.bonuses.Find(ctx, &DailyBonus{BonusDate: date, Active: true})
	if err != nil {
		return nil, err
	}

	var completed []*DailyBonus
	for _, b := range bonuses {
		if !DailyMet(b.ConditionKey, facts) {
			continue
		}

		p, err := s.ensureProgress(ctx, ord.MemberID, &Progress{
			MemberID:     ord.MemberID,
			DailyBonusID: &b.ID,
			Target:       1,
		})
		if err != nil {
			return completed, err
		}
		if p.Completed {
			continue
		}

		// Latch and award in one unit of work, so a failure mid-way cannot
		// leave a completed bonus whose points never land.
		var awarded bool
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			latched, err := s.latch(tx, p.ID, 1)
			if err != nil || !latched {
				return err
			}
			if _, err := s.ledger.EarnTx(ctx, tx, ledger.EventDailyBonus, ord.MemberID, b.PointsReward,
				fmt.Sprintf("Daily bonus: %s", b.Description), &ord.ID, false); err != nil {
				return err
			}
			awarded = true
			return nil
		}); err != nil {
			return completed, err
		}
		if !awarded {
			continue
		}
		completed = append(completed, b)

		zap.L().Info("daily bonus completed",
			zap.String("member_id", ord.MemberID),
			zap.String("condition_key", b.ConditionKey),
			zap.Int64("points", b.PointsReward),
		)
	}

	return completed, nil
}

// CheckWeekly adds the order's contribution to every active challenge of its
// week. Progress only ever grows; the completion latch flips once, when the
// accumulated progress first reaches the target. Returns the challenges this
// order completed.
func (s *Service) CheckWeekly(ctx context.Context, ord *order.Order) ([]*WeeklyChallenge, error) {
	facts := BuildFacts(ord, s.loc)
	weekStart, _ := WeekBounds(ord.OrderedAt.In(s.loc))

	challenges, err := s.challenges.Find(ctx, &WeeklyChallenge{WeekStart: weekStart, Active: true})
	if err != nil {
		return nil, err
	}

	var completed []*WeeklyChallenge
	for _, c := range challenges {
		inc := WeeklyIncrement(c.ConditionKey, facts)
		if inc <= 0 {
			continue
		}

		p, err := s.ensureProgress(ctx, ord.MemberID, &Progress{
			MemberID:    ord.MemberID,
			ChallengeID: &c.ID,
			Target:      c.Target,
		})
		if err != nil {
			return completed, err
		}
		if p.Completed {
			continue
		}

		// Increment, latch, and award in one unit of work; a crash mid-way
		// rolls the whole contribution back instead of stranding a latched
		// row with no points.
		var awarded bool
		if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&Progress{}).
				Where("id = ?", p.ID).
				Update("progress", gorm.Expr("progress + ?", inc)).Error; err != nil {
				return err
			}

			fresh, err := s.progress.WithTrx(tx).FindOne(ctx, &Progress{ID: p.ID})
			if err != nil {
				return err
			}
			if fresh == nil || fresh.Progress < c.Target {
				return nil
			}

			latched, err := s.latch(tx, p.ID, fresh.Progress)
			if err != nil || !latched {
				return err
			}
			if _, err := s.ledger.EarnTx(ctx, tx, ledger.EventWeeklyChallenge, ord.MemberID, c.PointsReward,
				fmt.Sprintf("Weekly challenge: %s", c.Description), &ord.ID, false); err != nil {
				return err
			}
			awarded = true
			return nil
		}); err != nil {
			return completed, err
		}
		if !awarded {
			continue
		}
		completed = append(completed, c)

		zap.L().Info("weekly challenge completed",
			zap.String("member_id", ord.MemberID),
			zap.String("condition_key", c.ConditionKey),
			zap.Int64("points", c.PointsReward),
		)
	}

	return completed, nil
}

// ensureProgress finds or creates the member's progress row. A create that
// loses the unique-index race falls back to reading the winner's row.
func (s *Service) ensureProgress(ctx context.Context, memberID string, template *Progress) (*Progress, error) {
	query := &Progress{MemberID: memberID, DailyBonusID: template.DailyBonusID, ChallengeID: template.ChallengeID}
	p, err := s.progress.FindOne(ctx, query)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}

	template.ID = s.node.Generate().String()
	if err := s.progress.Create(ctx, template); err != nil {
		p, findErr := s.progress.FindOne(ctx, query)
		if findErr == nil && p != nil {
			return p, nil
		}
		return nil, err
	}
	return template, nil
}

// latch flips the completion flag exactly once. Returns false when another
// evaluation already claimed it.
func (s *Service) latch(tx *gorm.DB, progressID string, finalProgress int) (bool, error) {
	res := tx.Model(&Progress{}).
		Where("id = ? AND completed = ?", progressID, false).
		Updates(map[string]any{
			"completed":    true,
			"completed_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"progress":     finalProgress,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

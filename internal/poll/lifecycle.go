package poll

import (
	"time"

	"gorm.io/gorm"
)

// EffectiveStatus reports the lifecycle state of p as observed at now.
// A persisted Ended verdict is terminal regardless of EndsAt, so the
// result can never move Ended -> Active.
func EffectiveStatus(p *Poll, now time.Time) Status {
	if p.Status == StatusEnded {
		return StatusEnded
	}
	if !now.Before(p.EndsAt) {
		return StatusEnded
	}
	return StatusActive
}

// reconcile persists an expiry observed at read time. There is no
// background clock; every read and mutation path runs this first.
//
// The guarded UPDATE makes concurrent write-backs idempotent: whichever
// observer loses the race updates zero rows, which is a no-op rather
// than an error. p is updated in place to match the persisted verdict.
func reconcile(tx *gorm.DB, p *Poll, now time.Time) error {
	if EffectiveStatus(p, now) == StatusActive {
		return nil
	}
	if p.Status != StatusEnded {
		res := tx.Model(&Poll{}).
			Where("id = ? AND status = ?", p.ID, StatusActive).
			Update("status", StatusEnded)
		if res.Error != nil {
			return res.Error
		}
	}
	p.Status = StatusEnded
	return nil
}

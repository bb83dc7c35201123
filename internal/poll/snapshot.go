package poll

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Snapshot is the full representation of a poll sent to API callers and
// to every broadcast subscriber. Events carry the whole snapshot rather
// than a diff; polls are small and clients reconcile by replacement.
type Snapshot struct {
	PollID      uint64           `json:"pollId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
	EndsAt      time.Time        `json:"endsAt"`
	Kind        string           `json:"kind"`
	IsActive    bool             `json:"isActive"`
	OwnerUserID uint64           `json:"ownerUserId"`
	Choices     []ChoiceSnapshot `json:"choices"`
}

type ChoiceSnapshot struct {
	ChoiceID     uint64   `json:"choiceId"`
	Label        string   `json:"label"`
	VoteCount    int      `json:"voteCount"`
	VoterUserIDs []uint64 `json:"voterUserIds"`
}

// loadSnapshot assembles the snapshot inside the caller's transaction so
// that it reflects exactly the state the mutation committed. VoteCount
// is derived from the vote rows themselves.
func loadSnapshot(tx *gorm.DB, pollID uint64) (*Snapshot, error) {
	var p Poll
	err := tx.
		Preload("Choices", func(db *gorm.DB) *gorm.DB {
			return db.Order("choices.id asc")
		}).
		Preload("Choices.Votes").
		First(&p, pollID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, err
	}
	return snapshotOf(&p), nil
}

func snapshotOf(p *Poll) *Snapshot {
	snap := &Snapshot{
		PollID:      p.ID,
		Title:       p.Title,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		EndsAt:      p.EndsAt,
		Kind:        p.Kind,
		IsActive:    p.Status == StatusActive,
		OwnerUserID: p.OwnerID,
		Choices:     make([]ChoiceSnapshot, 0, len(p.Choices)),
	}
	for _, c := range p.Choices {
		voters := make([]uint64, 0, len(c.Votes))
		for _, v := range c.Votes {
			voters = append(voters, v.UserID)
		}
		snap.Choices = append(snap.Choices, ChoiceSnapshot{
			ChoiceID:     c.ID,
			Label:        c.Label,
			VoteCount:    len(c.Votes),
			VoterUserIDs: voters,
		})
	}
	return snap
}

package poll

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CastVote registers userID's vote for choiceID and returns the updated
// snapshot. Voting twice for the same choice is indistinguishable from a
// client retry and is silently absorbed: the second call changes nothing
// and publishes nothing.
//
// Uniqueness rides entirely on the (user_id, choice_id) primary key via
// ON CONFLICT DO NOTHING. A duplicate cast, sequential or concurrent,
// never raises an error, which matters on Postgres: a raised unique
// violation would abort the surrounding transaction and fail the
// snapshot read that follows.
func (s *Service) CastVote(ctx context.Context, userID, choiceID uint64) (*Snapshot, error) {
	var snap *Snapshot
	var inserted bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, p, err := choiceWithPoll(tx, choiceID)
		if err != nil {
			return err
		}
		if err := reconcile(tx, p, time.Now().UTC()); err != nil {
			return err
		}
		if p.Status == StatusEnded {
			return ErrPollEnded
		}

		var u User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Vote{UserID: userID, ChoiceID: choiceID})
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected == 1

		snap, err = loadSnapshot(tx, c.PollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if inserted {
		s.publish(EventVoteCast, snap)
	}
	return snap, nil
}

// RemoveVote is the explicit undo of CastVote and, unlike it, is not
// idempotent: undoing a vote that does not exist is a caller error.
func (s *Service) RemoveVote(ctx context.Context, userID, choiceID uint64) (*Snapshot, error) {
	var snap *Snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, p, err := choiceWithPoll(tx, choiceID)
		if err != nil {
			return err
		}
		if err := reconcile(tx, p, time.Now().UTC()); err != nil {
			return err
		}
		if p.Status == StatusEnded {
			return ErrPollEnded
		}

		res := tx.Where("user_id = ? AND choice_id = ?", userID, choiceID).Delete(&Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVoteNotFound
		}

		snap, err = loadSnapshot(tx, c.PollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventVoteRemoved, snap)
	return snap, nil
}

// RemoveUserVotes withdraws every vote the user holds anywhere in the
// poll, for a user leaving the poll entirely.
func (s *Service) RemoveUserVotes(ctx context.Context, pollID, userID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var choiceIDs []uint64
		if err := tx.Model(&Choice{}).Where("poll_id = ?", pollID).Pluck("id", &choiceIDs).Error; err != nil {
			return err
		}
		if len(choiceIDs) == 0 {
			return ErrVoteNotFound
		}
		res := tx.Where("user_id = ? AND choice_id IN ?", userID, choiceIDs).Delete(&Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVoteNotFound
		}
		return nil
	})
}

func choiceWithPoll(tx *gorm.DB, choiceID uint64) (*Choice, *Poll, error) {
	var c Choice
	if err := tx.First(&c, choiceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrChoiceNotFound
		}
		return nil, nil, err
	}
	var p Poll
	if err := tx.First(&p, c.PollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPollNotFound
		}
		return nil, nil, err
	}
	return &c, &p, nil
}

package poll

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ProposeChoice promotes free-text input into a live ballot entry on an
// active poll.
func (s *Service) ProposeChoice(ctx context.Context, pollID, userID uint64, label string) (*Snapshot, error) {
	snap, err := s.addChoice(ctx, pollID, label)
	if err != nil {
		return nil, err
	}
	s.publish(EventChoiceAdded, snap)
	return snap, nil
}

// AddOpinion is the survey flavor of ProposeChoice; same mechanics,
// distinct event so clients can render it differently.
func (s *Service) AddOpinion(ctx context.Context, pollID, userID uint64, label string) (*Snapshot, error) {
	snap, err := s.addChoice(ctx, pollID, label)
	if err != nil {
		return nil, err
	}
	s.publish(EventOpinionAdded, snap)
	return snap, nil
}

func (s *Service) addChoice(ctx context.Context, pollID uint64, label string) (*Snapshot, error) {
	var snap *Snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Poll
		if err := tx.First(&p, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPollNotFound
			}
			return err
		}
		if err := reconcile(tx, &p, time.Now().UTC()); err != nil {
			return err
		}
		if p.Status == StatusEnded {
			return ErrPollEnded
		}

		if err := tx.Create(&Choice{PollID: pollID, Label: label}).Error; err != nil {
			return err
		}

		var err error
		snap, err = loadSnapshot(tx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// RecordSuggestion stores the free-text proposal itself, independent of
// whether it is ever promoted into a Choice. It shares the lifecycle
// gate with ProposeChoice: an ended poll accepts no input of any kind.
func (s *Service) RecordSuggestion(ctx context.Context, pollID, userID uint64, text string) (*Snapshot, error) {
	var snap *Snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Poll
		if err := tx.First(&p, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPollNotFound
			}
			return err
		}
		if err := reconcile(tx, &p, time.Now().UTC()); err != nil {
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

		if err := tx.Create(&Suggestion{PollID: pollID, UserID: userID, Text: text}).Error; err != nil {
			return err
		}

		var err error
		snap, err = loadSnapshot(tx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventSuggestionReceived, snap)
	return snap, nil
}

// SuggestionsByUser returns the audit trail of suggestions a user sent.
func (s *Service) SuggestionsByUser(ctx context.Context, userID uint64) ([]Suggestion, error) {
	var out []Suggestion
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) DeleteSuggestion(ctx context.Context, suggestionID uint64) error {
	res := s.DB.WithContext(ctx).Delete(&Suggestion{}, suggestionID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSuggestionNotFound
	}
	return nil
}

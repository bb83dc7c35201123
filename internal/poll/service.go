package poll

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Event kinds published to subscribers after an accepted mutation.
const (
	EventPollEnded          = "PollEnded"
	EventChoiceAdded        = "ChoiceAdded"
	EventOpinionAdded       = "OpinionAdded"
	EventVoteCast           = "VoteCast"
	EventVoteRemoved        = "VoteRemoved"
	EventSuggestionReceived = "SuggestionReceived"
)

// Publisher fans an event out to all connected viewers. Delivery is
// best-effort: by the time Publish runs the mutation has committed, so
// a delivery failure must never surface to the caller.
type Publisher interface {
	Publish(event string, payload any)
}

// Service owns every poll mutation. The hub is injected at construction
// rather than resolved per call.
type Service struct {
	DB  *gorm.DB
	Hub Publisher
}

func (s *Service) publish(event string, snap *Snapshot) {
	if s.Hub != nil {
		s.Hub.Publish(event, snap)
	}
}

type CreatePollInput struct {
	OwnerID     uint64
	Title       string
	Description string
	Kind        string
	EndsAt      time.Time
	Choices     []string
}

func (s *Service) CreatePoll(ctx context.Context, in CreatePollInput) (*Snapshot, error) {
	var snap *Snapshot
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner User
		if err := tx.First(&owner, in.OwnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		p := Poll{
			OwnerID:     in.OwnerID,
			Title:       in.Title,
			Description: in.Description,
			Kind:        in.Kind,
			Status:      StatusActive,
			EndsAt:      in.EndsAt,
		}
		for _, label := range in.Choices {
			p.Choices = append(p.Choices, Choice{Label: label})
		}
		if err := tx.Create(&p).Error; err != nil {
			return err
		}

		var err error
		snap, err = loadSnapshot(tx, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// GetPoll reconciles lifecycle state before reporting, so a poll whose
// end time elapsed while nobody was watching is returned (and persisted)
// as ended.
func (s *Service) GetPoll(ctx context.Context, pollID uint64) (*Snapshot, error) {
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
		var err error
		snap, err = loadSnapshot(tx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// VotedPolls lists the distinct polls the user has voted in.
func (s *Service) VotedPolls(ctx context.Context, userID uint64) ([]Poll, error) {
	var polls []Poll
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Poll{}).Distinct("polls.*").
			Joins("JOIN choices ON choices.poll_id = polls.id").
			Joins("JOIN votes ON votes.choice_id = choices.id").
			Where("votes.user_id = ?", userID).
			Find(&polls).Error; err != nil {
			return err
		}
		return reconcileAll(tx, polls)
	})
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// OwnedPolls lists the polls the user created.
func (s *Service) OwnedPolls(ctx context.Context, userID uint64) ([]Poll, error) {
	var polls []Poll
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", userID).Order("id asc").Find(&polls).Error; err != nil {
			return err
		}
		return reconcileAll(tx, polls)
	})
	if err != nil {
		return nil, err
	}
	return polls, nil
}

// PollsForUser is the union of voted and owned polls. An empty result is
// reported as not found, matching the API's historical behavior.
func (s *Service) PollsForUser(ctx context.Context, userID uint64) ([]Poll, error) {
	voted, err := s.VotedPolls(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.OwnedPolls(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]bool, len(voted)+len(owned))
	polls := make([]Poll, 0, len(voted)+len(owned))
	for _, p := range append(voted, owned...) {
		if !seen[p.ID] {
			seen[p.ID] = true
			polls = append(polls, p)
		}
	}
	if len(polls) == 0 {
		return nil, ErrPollNotFound
	}
	return polls, nil
}

func reconcileAll(tx *gorm.DB, polls []Poll) error {
	now := time.Now().UTC()
	for i := range polls {
		if err := reconcile(tx, &polls[i], now); err != nil {
			return err
		}
	}
	return nil
}

// EndPoll forces the poll to Ended at the current instant. Ending a poll
// that is already ended (manually or by elapsed time) returns the
// current snapshot without publishing a second event.
func (s *Service) EndPoll(ctx context.Context, pollID uint64) (*Snapshot, error) {
	var snap *Snapshot
	var transitioned bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Poll
		if err := tx.First(&p, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPollNotFound
			}
			return err
		}
		now := time.Now().UTC()
		if err := reconcile(tx, &p, now); err != nil {
			return err
		}

		res := tx.Model(&Poll{}).
			Where("id = ? AND status = ?", pollID, StatusActive).
			Updates(map[string]any{"status": StatusEnded, "ends_at": now})
		if res.Error != nil {
			return res.Error
		}
		transitioned = res.RowsAffected == 1

		var err error
		snap, err = loadSnapshot(tx, pollID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.publish(EventPollEnded, snap)
	}
	return snap, nil
}

// DeletePoll removes the poll with its choices and votes. Suggestions
// are audit records and survive the poll they reference.
func (s *Service) DeletePoll(ctx context.Context, pollID uint64) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p Poll
		if err := tx.First(&p, pollID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPollNotFound
			}
			return err
		}

		var choiceIDs []uint64
		if err := tx.Model(&Choice{}).Where("poll_id = ?", pollID).Pluck("id", &choiceIDs).Error; err != nil {
			return err
		}
		if len(choiceIDs) > 0 {
			if err := tx.Where("choice_id IN ?", choiceIDs).Delete(&Vote{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("poll_id = ?", pollID).Delete(&Choice{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Poll{}, pollID).Error
	})
}

// PollChoices returns the choices of a poll with derived tallies.
func (s *Service) PollChoices(ctx context.Context, pollID uint64) ([]ChoiceSnapshot, error) {
	var choices []Choice
	err := s.DB.WithContext(ctx).
		Preload("Votes").
		Where("poll_id = ?", pollID).
		Order("id asc").
		Find(&choices).Error
	if err != nil {
		return nil, err
	}
	if len(choices) == 0 {
		return nil, ErrChoiceNotFound
	}

	out := make([]ChoiceSnapshot, 0, len(choices))
	for _, c := range choices {
		voters := make([]uint64, 0, len(c.Votes))
		for _, v := range c.Votes {
			voters = append(voters, v.UserID)
		}
		out = append(out, ChoiceSnapshot{
			ChoiceID:     c.ID,
			Label:        c.Label,
			VoteCount:    len(c.Votes),
			VoterUserIDs: voters,
		})
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, userID uint64) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) UserByTrackingToken(ctx context.Context, token string) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where("tracking_token = ?", token).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Service) CreateUser(ctx context.Context, displayName, trackingToken string) (*User, error) {
	u := User{DisplayName: displayName, TrackingToken: trackingToken}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

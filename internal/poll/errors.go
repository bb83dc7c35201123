package poll

import "errors"

var (
	ErrPollNotFound       = errors.New("poll not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrChoiceNotFound     = errors.New("choice not found")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrSuggestionNotFound = errors.New("suggestion not found")

	// ErrPollEnded rejects mutations against a poll whose effective
	// state is Ended.
	ErrPollEnded = errors.New("poll is no longer active")
)

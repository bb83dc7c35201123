package poll

import "time"

// Status is the persisted lifecycle verdict of a poll. It is the last
// verdict written back, not necessarily the effective one; always go
// through EffectiveStatus before trusting it.
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// User is created on first contact (tracking cookie) or explicitly.
type User struct {
	ID            uint64 `gorm:"primaryKey"`
	DisplayName   string `gorm:"not null"`
	TrackingToken string `gorm:"uniqueIndex;not null"`
	CreatedAt     time.Time
}

type Poll struct {
	ID          uint64 `gorm:"primaryKey"`
	OwnerID     uint64 `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text;not null"`
	// Kind distinguishes single-choice / multi-choice / survey polls.
	// The core stores and reports it but does not interpret it.
	Kind      string `gorm:"not null"`
	Status    Status `gorm:"type:text;not null"`
	CreatedAt time.Time
	EndsAt    time.Time `gorm:"not null"`
	Choices   []Choice  `gorm:"constraint:OnDelete:CASCADE"`
}

// Choice carries no stored vote counter. Tallies are derived by counting
// Vote rows at snapshot time, so there is no cached value to fall out of
// sync under concurrent writers.
type Choice struct {
	ID     uint64 `gorm:"primaryKey"`
	PollID uint64 `gorm:"index;not null"`
	Label  string `gorm:"not null"`
	Votes  []Vote `gorm:"constraint:OnDelete:CASCADE"`
}

// Vote records that a user currently endorses a choice. The composite
// primary key enforces at most one row per (user, choice) pair.
type Vote struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	ChoiceID  uint64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
}

// Suggestion is an audit record of a free-text proposal. It exists
// independently of whether the text was promoted into a live Choice.
type Suggestion struct {
	ID        uint64 `gorm:"primaryKey"`
	PollID    uint64 `gorm:"index;not null"`
	UserID    uint64 `gorm:"index;not null"`
	Text      string `gorm:"not null"`
	CreatedAt time.Time
}

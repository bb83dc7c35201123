package poll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"myvote/internal/poll"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// capturingHub records published events so tests can assert exactly what
// fan-out a mutation triggered.
type capturingHub struct {
	mu     sync.Mutex
	events []string
}

func (h *capturingHub) Publish(event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *capturingHub) Events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.events...)
}

func newTestService(t *testing.T) (*poll.Service, *capturingHub) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database shared and
	// serializes concurrent transactions
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, gdb.AutoMigrate(
		&poll.User{},
		&poll.Poll{},
		&poll.Choice{},
		&poll.Vote{},
		&poll.Suggestion{},
	))

	hub := &capturingHub{}
	return &poll.Service{DB: gdb, Hub: hub}, hub
}

func seedUser(t *testing.T, svc *poll.Service, name string) *poll.User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), name, uuid.NewString())
	require.NoError(t, err)
	return u
}

func seedPoll(t *testing.T, svc *poll.Service, ownerID uint64, endsAt time.Time, choices ...string) *poll.Snapshot {
	t.Helper()
	snap, err := svc.CreatePoll(context.Background(), poll.CreatePollInput{
		OwnerID: ownerID,
		Title:   "lunch spot",
		Kind:    "multi",
		EndsAt:  endsAt,
		Choices: choices,
	})
	require.NoError(t, err)
	return snap
}

func choiceByLabel(t *testing.T, snap *poll.Snapshot, label string) poll.ChoiceSnapshot {
	t.Helper()
	for _, c := range snap.Choices {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no choice labeled %q in snapshot", label)
	return poll.ChoiceSnapshot{}
}

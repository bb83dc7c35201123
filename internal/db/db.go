package db

import (
	"fmt"

	"myvote/internal/poll"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// surface unique-key violations as gorm.ErrDuplicatedKey so the
		// vote coordinator can absorb concurrent duplicate casts
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&poll.User{},
		&poll.Poll{},
		&poll.Choice{},
		&poll.Vote{},
		&poll.Suggestion{},
	); err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_polls_status_ends on polls(status, ends_at);`,
		`create index if not exists idx_votes_choice on votes(choice_id);`,
		`create index if not exists idx_suggestions_user_created on suggestions(user_id, created_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}

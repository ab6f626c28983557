package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/streakup-server/internal/domain"
)

const (
	habitPrefix = "habit:"
	userPrefix  = "user:"
)

// BadgerStore is the embedded key-value implementation of Store.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	habits *Entity[domain.Habit]
	users  *Entity[domain.User]
}

// New opens (or creates) a Badger database at path.
func New(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Badger's own logger is too chatty
	opts.SyncWrites = true       // a completion must survive a crash
	opts.CompactL0OnClose = true // faster next start

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		logger: logger,
	}
	s.initHabits()
	s.initUsers()

	if logger != nil {
		logger.Info("Badger database opened", "path", path)
	}

	return s, nil
}

// Close flushes and closes the database. Closing twice is a no-op.
func (s *BadgerStore) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping reports whether the database is open and readable.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger db is closed")
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

func (s *BadgerStore) initHabits() {
	s.habits = NewEntity[domain.Habit](s, habitPrefix).
		WithListIndex("owner", func(h *domain.Habit) []string {
			return []string{h.OwnerID}
		})
}

func (s *BadgerStore) initUsers() {
	s.users = NewEntity[domain.User](s, userPrefix).
		WithIndexTransform("email",
			func(u *domain.User) []string {
				return []string{domain.NormalizeEmail(u.Email)}
			},
			domain.NormalizeEmail,
		)
}

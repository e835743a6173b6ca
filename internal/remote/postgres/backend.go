// Package postgres implements the remote contract directly on a Postgres
// database for self-hosted installs. Every row belongs to an account and
// every query is filtered by the signed-in account id.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"medminder-go/internal/remote"
	"medminder-go/pkg/logger"
)

const Provider = "postgres"

// insertionOrder lists rows in creation order; created_seq is filled by the
// database on insert.
const insertionOrder = "created_seq asc"

type Backend struct {
	db       *gorm.DB
	sessions remote.SessionStore
	log      logger.Logger

	mu     sync.Mutex
	userID string
	loaded bool
}

type storedSession struct {
	UserID string `json:"userId"`
}

func New(db *gorm.DB, sessions remote.SessionStore, log logger.Logger) *Backend {
	return &Backend{
		db:       db,
		sessions: sessions,
		log:      log.With("provider", Provider),
	}
}

func (b *Backend) Remote() *remote.Client {
	return &remote.Client{
		Provider:    Provider,
		Medications: &MedicationRepository{b: b},
		Reminders:   &ReminderRepository{b: b},
		Users:       &UserRepository{b: b},
	}
}

// currentUserID returns the signed-in account id or "" without a session.
func (b *Backend) currentUserID(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded || b.sessions == nil {
		return b.userID, nil
	}

	payload, err := b.sessions.LoadSession(ctx, Provider)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	b.loaded = true
	if len(payload) == 0 {
		return "", nil
	}

	var s storedSession
	if err := json.Unmarshal(payload, &s); err != nil {
		b.log.Warn("postgres: discarding unreadable session", "err", err)
		return "", nil
	}
	b.userID = s.UserID
	return b.userID, nil
}

func (b *Backend) requireUserID(ctx context.Context) (string, error) {
	userID, err := b.currentUserID(ctx)
	if err != nil {
		return "", err
	}
	if userID == "" {
		return "", remote.ErrNotAuthenticated
	}
	return userID, nil
}

func (b *Backend) setSession(ctx context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.userID = userID
	b.loaded = true
	if b.sessions == nil {
		return nil
	}

	if userID == "" {
		if err := b.sessions.ClearSession(ctx, Provider); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}

	payload, err := json.Marshal(storedSession{UserID: userID})
	if err != nil {
		return err
	}
	if err := b.sessions.SaveSession(ctx, Provider, payload); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (b *Backend) scoped(ctx context.Context, userID string) *gorm.DB {
	return b.db.WithContext(ctx).Where("user_id = ?", userID)
}

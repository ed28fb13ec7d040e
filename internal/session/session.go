// Package session holds the current identity, free-trial counter, and
// interaction history, persisted write-through to the settings store.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/supdatta/verbiq/internal/model"
	"github.com/supdatta/verbiq/internal/store"
)

// DefaultFreeUses is the trial allotment for unauthenticated visitors.
const DefaultFreeUses = 3

// Entry is the caller-supplied part of a history item. ID and date are
// stamped by AddToHistory.
type Entry struct {
	ModuleID    string
	ModuleTitle string
	LessonTitle string
	Result      model.AnalysisResult
}

// Manager is the session and identity store. Every mutation is persisted
// before it returns, so the in-memory state and the stored snapshot never
// diverge. Safe for concurrent use.
type Manager struct {
	mu       sync.RWMutex
	store    *store.Store
	auth     Authenticator
	user     *model.User
	freeUses int
}

// NewManager restores the session from the persisted snapshot. A missing or
// malformed user record starts the session logged out; a missing or malformed
// counter starts at DefaultFreeUses.
func NewManager(ctx context.Context, st *store.Store, auth Authenticator) (*Manager, error) {
	m := &Manager{store: st, auth: auth, freeUses: DefaultFreeUses}

	raw, ok, err := st.Get(ctx, store.KeyUser)
	if err != nil {
		return nil, err
	}
	if ok {
		var u model.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil && u.Username != "" {
			m.user = &u
		}
	}

	raw, ok, err = st.Get(ctx, store.KeyFreeUses)
	if err != nil {
		return nil, err
	}
	if ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 0 {
			m.freeUses = n
		}
	}
	return m, nil
}

// Login validates the pair against the allow-list. On success it constructs a
// fresh user with empty history and persists it. A failed match is not an
// error; there is no lockout or rate limiting.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, error) {
	cred, ok := m.auth.Authenticate(username, password)
	if !ok {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &model.User{
		Username:        cred.Username,
		IsAuthenticated: true,
		IsPremium:       cred.Premium,
		History:         []model.HistoryItem{},
	}
	if err := m.persistUserLocked(ctx); err != nil {
		m.user = nil
		return false, err
	}
	return true, nil
}

// Logout clears the in-memory user and removes the persisted record.
// Idempotent.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return m.store.Delete(ctx, store.KeyUser)
}

// DecrementFreeUses lowers the counter by one, never below zero, and persists
// the new value. While a user is authenticated the call is a no-op, so the
// counter cannot be spent by mistake on logged-in sessions.
func (m *Manager) DecrementFreeUses(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user != nil {
		return nil
	}
	n := m.freeUses - 1
	if n < 0 {
		n = 0
	}
	m.freeUses = n
	return m.store.Set(ctx, store.KeyFreeUses, strconv.Itoa(n))
}

// AddToHistory stamps the entry with a unique id and the current time and
// prepends it to the user's history. Without a logged-in user the entry is
// silently dropped; that mirrors the observed product behavior and is the one
// documented silent path in the pipeline.
func (m *Manager) AddToHistory(ctx context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	item := model.HistoryItem{
		ID:          ulid.Make().String(),
		ModuleID:    entry.ModuleID,
		ModuleTitle: entry.ModuleTitle,
		LessonTitle: entry.LessonTitle,
		Date:        time.Now().UTC().Format(time.RFC3339),
		Result:      entry.Result,
	}
	m.user.History = append([]model.HistoryItem{item}, m.user.History...)
	return m.persistUserLocked(ctx)
}

// IsAuthenticated reports whether a logged-in user is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user != nil && m.user.IsAuthenticated
}

// User returns a copy of the current user, or nil when logged out.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	u.History = append([]model.HistoryItem(nil), m.user.History...)
	return &u
}

// FreeUsesRemaining returns the current trial counter.
func (m *Manager) FreeUsesRemaining() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.freeUses
}

// History returns a copy of the user's history, newest first. Empty when
// logged out.
func (m *Manager) History() []model.HistoryItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	return append([]model.HistoryItem(nil), m.user.History...)
}

func (m *Manager) persistUserLocked(ctx context.Context) error {
	data, err := json.Marshal(m.user)
	if err != nil {
		return err
	}
	return m.store.Set(ctx, store.KeyUser, string(data))
}

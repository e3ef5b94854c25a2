// Package session keeps the authenticated identity of the client and its
// persisted copy. It subscribes to the transport's invalidation callback;
// it is the only place that clears session storage.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TWRT/taskdesk/internal/client"
	"github.com/TWRT/taskdesk/internal/models"
)

var ErrInvalidToken = errors.New("invalid authentication token")

type Manager struct {
	auth    client.AuthAPI
	storage Storage
	logger  *slog.Logger

	mu          sync.RWMutex
	current     *models.Session
	onSignedOut []func()
}

func NewManager(auth client.AuthAPI, storage Storage, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{auth: auth, storage: storage, logger: logger}
}

// OnSignedOut registers the redirect hook run after a forced sign-out.
func (m *Manager) OnSignedOut(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSignedOut = append(m.onSignedOut, fn)
}

// Restore rebuilds the session from storage. It makes no network call.
func (m *Manager) Restore() error {
	token, hasToken, err := m.storage.Get(TokenKey)
	if err != nil {
		return fmt.Errorf("read stored token: %w", err)
	}
	raw, hasUser, err := m.storage.Get(UserKey)
	if err != nil {
		return fmt.Errorf("read stored user: %w", err)
	}
	if !hasToken || token == "" {
		if hasUser {
			return m.clear()
		}
		return nil
	}
	if !hasUser {
		m.logger.Warn("stored token without session record, discarding")
		return m.clear()
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.UserID == 0 {
		m.logger.Warn("stored session record is unreadable, discarding", "error", err)
		return m.clear()
	}
	sess.Token = token

	m.mu.Lock()
	m.current = &sess
	m.mu.Unlock()
	return nil
}

func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.auth.Login(ctx, models.Credentials{Username: username, Password: password})
	if err != nil {
		return err
	}

	userID, err := SubjectFromToken(token.AccessToken)
	if err != nil {
		m.logger.Error("failed to decode access token", "error", err)
		if clearErr := m.clear(); clearErr != nil {
			return errors.Join(ErrInvalidToken, clearErr)
		}
		return ErrInvalidToken
	}

	sess := &models.Session{
		UserID:   userID,
		Username: username,
		Role:     models.RoleMember,
		Token:    token.AccessToken,
	}
	if err := m.persist(sess); err != nil {
		return errors.Join(fmt.Errorf("persist session: %w", err), m.clear())
	}

	m.mu.Lock()
	m.current = sess
	m.mu.Unlock()
	m.logger.Info("logged in", "user_id", userID, "username", username)
	return nil
}

func (m *Manager) persist(sess *models.Session) error {
	record, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := m.storage.Set(TokenKey, sess.Token); err != nil {
		return err
	}
	return m.storage.Set(UserKey, string(record))
}

func (m *Manager) Logout() error {
	return m.clear()
}

// Invalidate is the transport's 401 subscriber: it signs the user out and
// runs the redirect hooks.
func (m *Manager) Invalidate() {
	if err := m.clear(); err != nil {
		m.logger.Error("clear session storage", "error", err)
	}
	m.logger.Info("session invalidated by server")

	m.mu.RLock()
	hooks := append([]func(){}, m.onSignedOut...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

func (m *Manager) clear() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return m.storage.Delete(TokenKey, UserKey)
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// Current returns a copy of the session, or nil when signed out.
func (m *Manager) Current() *models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	sess := *m.current
	return &sess
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Package auth holds the locally persisted sign-in state and the demo OTP
// flow. There is no server-side identity verification; sign-in is a local
// flag persisted in the key-value store.
package auth

import (
	"context"
	"encoding/json"
	"sync"

	apperrors "qarzapp/internal/common/errors"
	"qarzapp/internal/common/logger"
	"qarzapp/internal/models"

	"github.com/redis/go-redis/v9"
)

const userKey = "user"

// SessionManager holds at most one AuthenticatedUser at a time,
// process-wide, persisted across restarts under the "user" key.
type SessionManager struct {
	rdb    *redis.Client
	logger logger.Logger

	mu      sync.RWMutex
	current *models.AuthenticatedUser
}

func NewSessionManager(rdb *redis.Client, log logger.Logger) *SessionManager {
	return &SessionManager{
		rdb:    rdb,
		logger: log.WithFields(map[string]interface{}{"component": "session-manager"}),
	}
}

// SignIn persists user and makes it the current session. The session is
// only established once the write succeeds.
func (m *SessionManager) SignIn(ctx context.Context, user *models.AuthenticatedUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return apperrors.NewStorageWriteError(err)
	}
	if err := m.rdb.Set(ctx, userKey, payload, 0).Err(); err != nil {
		return apperrors.NewStorageWriteError(err)
	}

	m.mu.Lock()
	m.current = user
	m.mu.Unlock()

	m.logger.Info("user signed in", map[string]interface{}{"uid": user.UID})
	return nil
}

// SignOut clears the in-memory session and removes the persisted user.
// The in-memory state is cleared even if the delete fails.
func (m *SessionManager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.rdb.Del(ctx, userKey).Err(); err != nil {
		return apperrors.NewStorageWriteError(err)
	}

	m.logger.Info("user signed out", nil)
	return nil
}

// RestoreSession rehydrates the current user from the store. Called once at
// startup. Read failures and corrupt payloads report "no session found"
// rather than erroring.
func (m *SessionManager) RestoreSession(ctx context.Context) bool {
	raw, err := m.rdb.Get(ctx, userKey).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		m.logger.Warn("session read failed, treating as signed out", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	var user models.AuthenticatedUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.logger.Warn("stored session is corrupt, treating as signed out", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}

	m.mu.Lock()
	m.current = &user
	m.mu.Unlock()

	m.logger.Info("session restored", map[string]interface{}{"uid": user.UID})
	return true
}

// CurrentUser returns the signed-in user, or nil.
func (m *SessionManager) CurrentUser() *models.AuthenticatedUser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsSignedIn reports whether a user is signed in.
func (m *SessionManager) IsSignedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

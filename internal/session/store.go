// Package session holds the user directory and the in-memory session store
// used to authenticate real-time channels.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

var (
	// ErrMissingCredentials is returned when username or password is empty
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials is returned when no user matches
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrTokenRequired is returned when an empty token is presented
	ErrTokenRequired = errors.New("token is required")
	// ErrSessionNotFound is returned for unknown or expired tokens
	ErrSessionNotFound = errors.New("session not found")
)

// Config is an alias to the config package type
type Config = config.SessionConfig

// User is one entry of the user directory
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated login, optionally bound to a channel
type Session struct {
	Token        string    `json:"-"`
	UserID       string    `json:"userId"`
	Username     string    `json:"username"`
	ChannelID    string    `json:"channelId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
}

type userFile struct {
	Users []User `json:"users"`
}

// LoadUsers reads the user directory from a JSON file of the form
// {"users": [{"id": ..., "username": ..., "password": ...}]}
func LoadUsers(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read users file: %w", err)
	}
	var f userFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse users file %s: %w", path, err)
	}
	return f.Users, nil
}

// Store issues and validates session tokens. Sessions expire after
// MaxInactive without activity.
type Store struct {
	mu       sync.Mutex
	users    map[string]User
	sessions *ttlcache.Cache[string, *Session]
	logger   *slog.Logger
}

// NewStore creates a session store over users
func NewStore(users []User, cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Session](cfg.MaxInactive),
	)
	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		if reason == ttlcache.EvictionReasonExpired {
			logger.Info("Expired session removed", "user_id", item.Value().UserID)
		}
	})

	return &Store{
		users:    byName,
		sessions: cache,
		logger:   logger,
	}
}

// Start runs the background expiry sweep until Stop is called
func (s *Store) Start() {
	go s.sessions.Start()
}

// Stop halts the background expiry sweep
func (s *Store) Stop() {
	s.sessions.Stop()
}

// Login checks credentials and returns a new session
func (s *Store) Login(username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, ok := s.users[username]
	if !ok || user.Password != password {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	sess := &Session{
		Token:        uuid.NewString(),
		UserID:       user.ID,
		Username:     user.Username,
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions.Set(sess.Token, sess, ttlcache.DefaultTTL)

	s.logger.Info("User logged in", "user_id", user.ID, "username", user.Username)

	out := *sess
	return &out, nil
}

// Logout removes the session for token
func (s *Store) Logout(token string) error {
	if token == "" {
		return ErrTokenRequired
	}
	if !s.Remove(token) {
		return ErrSessionNotFound
	}
	return nil
}

// Validate binds the session for token to channelID and records activity
func (s *Store) Validate(token, channelID string) (*Session, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	item := s.sessions.Get(token)
	if item == nil {
		return nil, ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := item.Value()
	sess.ChannelID = channelID
	sess.LastActivity = time.Now()

	s.logger.Debug("Session validated", "user_id", sess.UserID, "channel_id", channelID)

	out := *sess
	return &out, nil
}

// Get returns the session for token without binding a channel
func (s *Store) Get(token string) (*Session, bool) {
	if token == "" {
		return nil, false
	}
	item := s.sessions.Get(token)
	if item == nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := *item.Value()
	return &out, true
}

// Touch records activity on the session for token
func (s *Store) Touch(token string) bool {
	item := s.sessions.Get(token)
	if item == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item.Value().LastActivity = time.Now()
	return true
}

// Remove deletes the session for token and reports whether it existed
func (s *Store) Remove(token string) bool {
	if token == "" {
		return false
	}
	item, present := s.sessions.GetAndDelete(token)
	if !present {
		return false
	}
	s.logger.Info("Session removed", "user_id", item.Value().UserID)
	return true
}

// Count returns the number of live sessions
func (s *Store) Count() int {
	return s.sessions.Len()
}

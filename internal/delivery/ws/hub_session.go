package ws

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

// SessionToken lets a reconnecting browser reclaim its previous identity
type SessionToken struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	LastUsed  time.Time
}

// SessionStore manages session tokens for reconnection
type SessionStore struct {
	tokens  map[string]*SessionToken // token -> session
	userIDs map[string]string        // userID -> token (for cleanup)
	mu      sync.RWMutex
	ttl     time.Duration
	stop    chan struct{}
	once    sync.Once
}

// NewSessionStore creates a session store whose tokens expire after ttl
func NewSessionStore(ttl time.Duration) *SessionStore {
	store := &SessionStore{
		tokens:  make(map[string]*SessionToken),
		userIDs: make(map[string]string),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

// GenerateToken creates a new session token for a user, replacing any previous one
func (s *SessionStore) GenerateToken(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldToken, exists := s.userIDs[userID]; exists {
		delete(s.tokens, oldToken)
	}

	tokenBytes := make([]byte, 32) // 256 bits
	rand.Read(tokenBytes)
	token := hex.EncodeToString(tokenBytes)

	now := time.Now()
	s.tokens[token] = &SessionToken{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		LastUsed:  now,
	}
	s.userIDs[userID] = token

	return token
}

// ValidateToken returns the user id behind a live token
func (s *SessionStore) ValidateToken(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.tokens[token]
	if !exists {
		return "", false
	}

	if time.Since(session.CreatedAt) > s.ttl {
		delete(s.userIDs, session.UserID)
		delete(s.tokens, token)
		return "", false
	}

	session.LastUsed = time.Now()
	return session.UserID, true
}

// Count returns the number of live tokens
func (s *SessionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Close stops the cleanup loop
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// cleanupLoop periodically removes expired tokens
func (s *SessionStore) cleanupLoop() {
	interval := s.ttl
	if interval > time.Hour {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

// cleanup removes expired tokens
func (s *SessionStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, session := range s.tokens {
		if now.Sub(session.CreatedAt) > s.ttl {
			delete(s.userIDs, session.UserID)
			delete(s.tokens, token)
		}
	}
}

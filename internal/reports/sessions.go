package reports

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionStore keeps report sessions per client and closes idle ones
type SessionStore struct {
	sessions map[string]*Session
	config   SessionConfig
	ttl      time.Duration
	mu       sync.RWMutex
	cleanup  *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// NewSessionStore creates a store. Sessions idle longer than ttl are closed
// on each cleanup tick; a ttl of zero disables expiry.
func NewSessionStore(config SessionConfig, ttl, cleanupInterval time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	store := &SessionStore{
		sessions: make(map[string]*Session),
		config:   config,
		ttl:      ttl,
		cleanup:  time.NewTicker(cleanupInterval),
		done:     make(chan struct{}),
		logger:   logger,
	}

	go store.cleanupLoop()

	return store
}

// Create opens a new idle session
func (st *SessionStore) Create() *Session {
	session := NewSession(st.config)

	st.mu.Lock()
	st.sessions[session.ID()] = session
	st.mu.Unlock()

	st.logger.Info("Report session created", zap.String("session_id", session.ID()))
	return session
}

// Get returns an open session
func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete closes and removes a session
func (st *SessionStore) Delete(id string) error {
	st.mu.Lock()
	session, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Close()
	st.logger.Info("Report session closed", zap.String("session_id", id))
	return nil
}

// Len returns the number of open sessions
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return len(st.sessions)
}

// cleanupLoop periodically closes expired sessions
func (st *SessionStore) cleanupLoop() {
	for {
		select {
		case <-st.cleanup.C:
			st.RemoveExpired()
		case <-st.done:
			return
		}
	}
}

// RemoveExpired closes every session idle longer than the ttl and returns how many were closed
func (st *SessionStore) RemoveExpired() int {
	if st.ttl <= 0 {
		return 0
	}

	now := st.config.Now()
	var expired []*Session

	st.mu.Lock()
	for id, session := range st.sessions {
		if now.Sub(session.LastActive()) > st.ttl {
			expired = append(expired, session)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, session := range expired {
		session.Close()
		st.logger.Info("Report session expired", zap.String("session_id", session.ID()))
	}
	return len(expired)
}

// Stop stops the cleanup goroutine and closes every session
func (st *SessionStore) Stop() {
	st.stopOnce.Do(func() {
		st.cleanup.Stop()
		close(st.done)
	})

	st.mu.Lock()
	sessions := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}

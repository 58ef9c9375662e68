// Package session keeps trading environments alive between HTTP requests.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/neotheprogramist/ai-playground/internal/environment"
	"github.com/neotheprogramist/ai-playground/pkg/errors"
)

// DefaultTTL is how long an untouched session is kept.
const DefaultTTL = 24 * time.Hour

// Session is the persisted state of one environment session.
type Session struct {
	Token     string               `json:"token"`
	EpisodeID string               `json:"episode_id"`
	Symbol    string               `json:"symbol"`
	Start     time.Time            `json:"start"`
	End       time.Time            `json:"end"`
	CreatedAt time.Time            `json:"created_at"`
	Snapshot  environment.Snapshot `json:"snapshot"`
}

// Store persists sessions by token. Every Save refreshes the expiry.
type Store interface {
	Save(ctx context.Context, session Session) error
	// Load returns an ErrCodeSessionNotFound error for unknown or expired tokens.
	Load(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
	Close() error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// sweepInterval caps how often expired sessions are purged.
const sweepInterval = time.Minute

// MemoryStore keeps sessions in process memory. Expired sessions are purged by
// a background sweep and on Save, so abandoned tokens do not pile up.
type MemoryStore struct {
	mu        sync.RWMutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time

	ticker    *time.Ticker
	stop      chan struct{}
	closeOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore. A non-positive ttl disables expiry and
// the sweep. Close stops the sweep.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		mu:        sync.RWMutex{},
		entries:   make(map[string]memoryEntry),
		ttl:       ttl,
		now:       time.Now,
		stop:      make(chan struct{}),
	}

	if ttl > 0 {
		s.ticker = time.NewTicker(min(ttl, sweepInterval))

		go s.sweepLoop()
	}

	return s
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	now := s.now()

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ttl > 0 && now.Sub(s.lastSweep) >= min(s.ttl, sweepInterval) {
		s.purgeLocked(now)
	}

	s.entries[session.Token] = memoryEntry{session: session, expiresAt: expiresAt}

	return nil
}

func (s *MemoryStore) Load(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[token]
	s.mu.RUnlock()

	if !ok {
		return Session{}, notFound(token)
	}

	if entry.expired(s.now()) {
		s.mu.Lock()
		delete(s.entries, token)
		s.mu.Unlock()

		return Session{}, notFound(token)
	}

	return entry.session, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.entries, token)
	s.mu.Unlock()

	return nil
}

// Len returns the number of stored sessions, including expired ones the sweep
// has not reached yet.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Close stops the background sweep. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		if s.ticker != nil {
			s.ticker.Stop()
		}

		close(s.stop)
	})

	return nil
}

func (s *MemoryStore) sweepLoop() {
	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.C:
			s.sweep()
		}
	}
}

// sweep removes every expired session.
func (s *MemoryStore) sweep() {
	now := s.now()

	s.mu.Lock()
	s.purgeLocked(now)
	s.mu.Unlock()
}

func (s *MemoryStore) purgeLocked(now time.Time) {
	for token, entry := range s.entries {
		if entry.expired(now) {
			delete(s.entries, token)
		}
	}

	s.lastSweep = now
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func notFound(token string) error {
	return errors.Newf(errors.ErrCodeSessionNotFound, "invalid or expired session token %q", token)
}

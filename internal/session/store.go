// Package session keeps per-browser state in memory: the current recipe, the
// request that produced it and the follow-up questions asked about it.
// Nothing here survives a restart.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/alchemorsel-ai-recipe/backend/internal/model"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// QA is one answered follow-up question.
type QA struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Request is the user input that produced the current recipe.
type Request struct {
	Query       string   `json:"query,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Servings    *int     `json:"servings,omitempty"`
	Diet        string   `json:"diet,omitempty"`
	NoCook      bool     `json:"no_cook"`
	Temperature float64  `json:"temperature"`
	Model       string   `json:"model,omitempty"`
}

// Session is a snapshot of one browser session. Values returned by the Store
// are copies; mutate through the Store methods.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	Recipe    *model.Recipe `json:"recipe,omitempty"`
	Request   *Request      `json:"request,omitempty"`
	History   []QA          `json:"history"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store is an in-memory, concurrency-safe session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ttl      time.Duration
	now      func() time.Time
	log      *logrus.Entry
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, log *logrus.Entry) *Store {
	if log == nil {
		log = logrus.WithField("component", "session_store")
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Create starts a new empty session.
func (s *Store) Create() Session {
	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		History:   []QA{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess.snapshot()
}

// Get returns a copy of the session.
func (s *Store) Get(id uuid.UUID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return Session{}, ErrNotFound
	}
	return sess.snapshot(), nil
}

// SetRecipe replaces the current recipe and clears the question history,
// since earlier answers were about the previous recipe.
func (s *Store) SetRecipe(id uuid.UUID, recipe *model.Recipe, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return ErrNotFound
	}
	sess.Recipe = recipe
	sess.Request = &req
	sess.History = []QA{}
	sess.UpdatedAt = s.now()
	return nil
}

// AppendQA records an answered question.
func (s *Store) AppendQA(id uuid.UUID, qa QA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return ErrNotFound
	}
	if qa.AskedAt.IsZero() {
		qa.AskedAt = s.now()
	}
	sess.History = append(sess.History, qa)
	sess.UpdatedAt = s.now()
	return nil
}

// Delete removes a session.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included until the next sweep.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper sweeps every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.WithField("removed", n).Debug("expired sessions swept")
			}
		}
	}
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.UpdatedAt) > s.ttl
}

func (sess *Session) snapshot() Session {
	cp := *sess
	cp.History = append([]QA(nil), sess.History...)
	if cp.History == nil {
		cp.History = []QA{}
	}
	if sess.Request != nil {
		req := *sess.Request
		cp.Request = &req
	}
	return cp
}

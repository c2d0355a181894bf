package api

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// session guards one game and remembers when it was last touched, so that
// game clocks advance by wall time between requests.
type session[T any] struct {
	mu   sync.Mutex
	game T
	seen time.Time
}

type sessions[T any] struct {
	now func() time.Time

	mu sync.Mutex
	m  map[string]*session[T]
}

func newSessions[T any]() *sessions[T] {
	return &sessions[T]{now: time.Now, m: make(map[string]*session[T])}
}

func (s *sessions[T]) add(game T) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.m[id] = &session[T]{game: game, seen: s.now()}
	s.mu.Unlock()
	return id
}

// use runs fn with the session locked. elapsed is the wall time since the
// previous use.
func (s *sessions[T]) use(id string, fn func(game T, elapsed time.Duration)) bool {
	s.mu.Lock()
	sess, ok := s.m[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	now := s.now()
	fn(sess.game, now.Sub(sess.seen))
	sess.seen = now
	return true
}

// prune drops sessions untouched for longer than idle.
func (s *sessions[T]) prune(idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.m {
		sess.mu.Lock()
		stale := sess.seen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			delete(s.m, id)
			n++
		}
	}
	return n
}

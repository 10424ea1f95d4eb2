// Package session keeps per-interview state in memory, keyed by session id.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

var ErrNotFound = errors.New("session not found")

// Store holds live sessions. Entries expire after ttl of inactivity and the
// least recently used one is evicted once size is reached.
type Store struct {
	sessions *expirable.LRU[string, *Session]
}

func NewStore(size int, ttl time.Duration) *Store {
	return &Store{
		sessions: expirable.NewLRU[string, *Session](size, nil, ttl),
	}
}

func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString())
	s.sessions.Add(sess.ID, sess)
	return sess
}

// Get returns the session and refreshes its expiry.
func (s *Store) Get(id string) (*Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	s.sessions.Add(id, sess)
	return sess, nil
}

func (s *Store) Delete(id string) bool {
	return s.sessions.Remove(id)
}

func (s *Store) Len() int {
	return s.sessions.Len()
}

package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
	"document-qa/internal/models"
)

// Store keeps the most recently used sessions. Expired or evicted
// sessions are reset so their artifacts are released.
type Store[T any] struct {
	mu       sync.Mutex
	lru      *expirable.LRU[string, *Session[T]]
	defaults models.LLMConfig
	release  func(T)
}

func NewStore[T any](size int, ttl time.Duration, defaults models.LLMConfig, release func(T)) *Store[T] {
	s := &Store[T]{defaults: defaults, release: release}
	s.lru = expirable.NewLRU[string, *Session[T]](size, func(id string, sess *Session[T]) {
		log.Debug().Str("session", id).Msg("Session evicted")
		sess.Reset()
	}, ttl)
	return s
}

func (s *Store[T]) Get(id string) (*Session[T], bool) {
	if !helper.IsUUID(id) {
		return nil, false
	}
	return s.lru.Get(id)
}

// GetOrCreate returns the session for id, creating one under a fresh id
// when id is empty or unknown.
func (s *Store[T]) GetOrCreate(id string) (*Session[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.Get(id); ok {
		return sess, nil
	}
	newID, err := helper.GenerateUUID()
	if err != nil {
		return nil, err
	}
	sess := newSession(newID, s.defaults, s.release)
	s.lru.Add(newID, sess)
	return sess, nil
}

// Remove drops the session and releases its artifact.
func (s *Store[T]) Remove(id string) {
	s.lru.Remove(id)
}

func (s *Store[T]) Len() int {
	return s.lru.Len()
}

// Purge releases every session.
func (s *Store[T]) Purge() {
	s.lru.Purge()
}

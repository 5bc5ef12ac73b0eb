package channel

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// SessionTracker counts sessions that saw activity within the TTL. Safe for concurrent use.
type SessionTracker struct {
	sessions *expirable.LRU[string, struct{}]
}

// NewSessionTracker creates a tracker whose sessions expire ttl after their last activity.
// A zero ttl keeps sessions until they are ended.
func NewSessionTracker(ttl time.Duration) *SessionTracker {
	return &SessionTracker{
		sessions: expirable.NewLRU[string, struct{}](0, nil, ttl),
	}
}

// Touch starts or refreshes the session identified by key
func (s *SessionTracker) Touch(key string) {
	if key == "" {
		return
	}
	s.sessions.Add(key, struct{}{})
}

// End removes a session
func (s *SessionTracker) End(key string) {
	s.sessions.Remove(key)
}

// Active returns the number of live sessions. Keys skips entries past their TTL that the
// cache has not swept yet.
func (s *SessionTracker) Active() int {
	return len(s.sessions.Keys())
}

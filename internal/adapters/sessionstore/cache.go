// Package sessionstore keeps conversation sessions in process memory.
package sessionstore

import (
	"github.com/patrickmn/go-cache"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
)

// CacheStore implements ports.SessionStore on go-cache. Entries never
// expire; sessions live until Drop.
type CacheStore struct {
	cache *cache.Cache
}

// NewCacheStore creates an empty session store.
func NewCacheStore() *CacheStore {
	return &CacheStore{cache: cache.New(cache.NoExpiration, 0)}
}

func key(sessionID string, c entities.Capability) string {
	return sessionID + "/" + c.String()
}

// Session returns the session for (sessionID, c), creating it when absent.
func (s *CacheStore) Session(sessionID string, c entities.Capability) (*entities.ConversationSession, bool) {
	for {
		if existing, ok := s.Lookup(sessionID, c); ok {
			return existing, false
		}
		fresh := entities.NewConversationSession(sessionID, c)
		if err := s.cache.Add(key(sessionID, c), fresh, cache.NoExpiration); err == nil {
			return fresh, true
		}
	}
}

// Lookup returns an existing session.
func (s *CacheStore) Lookup(sessionID string, c entities.Capability) (*entities.ConversationSession, bool) {
	if x, found := s.cache.Get(key(sessionID, c)); found {
		return x.(*entities.ConversationSession), true
	}
	return nil, false
}

// Drop deletes every capability session of sessionID.
func (s *CacheStore) Drop(sessionID string) {
	for _, c := range entities.Capabilities {
		s.cache.Delete(key(sessionID, c))
	}
}

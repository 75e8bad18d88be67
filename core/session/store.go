package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ConversationID identifies a chat session. It is the unit of isolation for
// all pending state.
type ConversationID string

// =============================================================================
// Store
// =============================================================================

// Store holds at most one pending Decision per conversation, in memory only.
//
// Only the workflow engine writes to a given key, and only while it is
// processing one inbound event for that conversation. Keys are spread over
// shards to keep unrelated conversations off the same lock. Entries idle for
// longer than the configured TTL are dropped and read back as idle.
type Store struct {
	shards    []*shard
	numShards int
	ttl       time.Duration
}

type shard struct {
	entries *expirable.LRU[ConversationID, Decision]
}

// StoreConfig configures the session store
type StoreConfig struct {
	// NumShards controls sharding for concurrent access (default: 16)
	NumShards int

	// ShardCapacity caps entries per shard; the least recently touched
	// decision is dropped beyond it. Zero means unbounded.
	ShardCapacity int

	// IdleTTL expires decisions nobody has touched for this long (default: 30m).
	// A negative value disables expiry.
	IdleTTL time.Duration
}

// DefaultStoreConfig returns default store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		NumShards:     16,
		ShardCapacity: 4096,
		IdleTTL:       30 * time.Minute,
	}
}

// NewStore creates a session store. Each shard's expiry sweeper runs for
// the life of the process (golang-lru cannot stop it), so build one store
// per process.
func NewStore(cfg StoreConfig) *Store {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 16
	}
	if cfg.ShardCapacity < 0 {
		cfg.ShardCapacity = 0
	}
	ttl := cfg.IdleTTL
	switch {
	case ttl == 0:
		ttl = 30 * time.Minute
	case ttl < 0:
		ttl = 0
	}

	shards := make([]*shard, cfg.NumShards)
	for i := range shards {
		shards[i] = &shard{
			entries: expirable.NewLRU[ConversationID, Decision](cfg.ShardCapacity, nil, ttl),
		}
	}

	return &Store{
		shards:    shards,
		numShards: cfg.NumShards,
		ttl:       ttl,
	}
}

// getShard returns the shard for a given conversation
func (s *Store) getShard(id ConversationID) *shard {
	hash := fnv32(string(id))
	return s.shards[hash%uint32(s.numShards)]
}

// fnv32 computes a simple hash for sharding
func fnv32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// Get returns the pending decision for id, or nil when idle.
func (s *Store) Get(id ConversationID) Decision {
	d, ok := s.getShard(id).entries.Get(id)
	if !ok {
		return nil
	}
	return d
}

// Set stores d as the pending decision for id and returns whatever it
// replaced. Setting nil clears the entry.
func (s *Store) Set(id ConversationID, d Decision) Decision {
	prev := s.Get(id)
	if d == nil {
		s.Clear(id)
		return prev
	}
	s.getShard(id).entries.Add(id, d)
	return prev
}

// Clear drops the pending decision for id. Clearing an idle conversation is
// a no-op.
func (s *Store) Clear(id ConversationID) {
	s.getShard(id).entries.Remove(id)
}

// Len returns the number of conversations with a live decision.
func (s *Store) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.entries.Len()
	}
	return n
}

// TTL returns the idle expiry applied to decisions, zero when disabled.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

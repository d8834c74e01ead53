package transport

import lru "github.com/hashicorp/golang-lru/v2"

// fnvOffset and fnvPrime are the 32-bit FNV-1a constants spec.md §6 names
// explicitly ("initial value 0x811C9DC5 ... hash = (hash * 0x01000193) mod
// 2^32").
const (
	fnvOffset uint32 = 0x811C9DC5
	fnvPrime  uint32 = 0x01000193
)

// ClientHash abbreviates a stringly-keyed client id to the 32-bit wire
// hash spec.md §6 specifies.
func ClientHash(clientID string) uint32 {
	hash := fnvOffset
	for i := 0; i < len(clientID); i++ {
		hash ^= uint32(clientID[i])
		hash *= fnvPrime
	}
	return hash
}

// HashCache resolves wire hashes back to the client id string that
// produced them (spec.md §6 "a per-peer lookup table resolves hashes back
// to strings"). A bounded LRU is the right structure here because an
// eviction just costs a rarer re-resolution (the peer can always re-send
// the full id), never a correctness issue — unlike the rollback rings,
// which must evict by frame number, not access recency (see DESIGN.md).
type HashCache struct {
	cache *lru.Cache[uint32, string]
}

// NewHashCache creates a cache bounded to size entries.
func NewHashCache(size int) (*HashCache, error) {
	c, err := lru.New[uint32, string](size)
	if err != nil {
		return nil, err
	}
	return &HashCache{cache: c}, nil
}

// Observe hashes clientID, records the mapping, and returns the hash to
// place on the wire.
func (h *HashCache) Observe(clientID string) uint32 {
	hash := ClientHash(clientID)
	h.cache.Add(hash, clientID)
	return hash
}

// Resolve looks up the client id string for a wire hash previously seen
// through Observe.
func (h *HashCache) Resolve(hash uint32) (string, bool) {
	return h.cache.Get(hash)
}

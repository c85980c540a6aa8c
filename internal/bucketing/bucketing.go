package bucketing

import (
	"hash"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// Manager assigns partition buckets for the wide-row Scylla tables and the
// ClickHouse audit stream. The same id always lands in the same bucket.
type Manager struct {
	userBuckets  int
	eventBuckets int
	hasherPool   sync.Pool
}

func NewManager(userBuckets, eventBuckets int) *Manager {
	if userBuckets <= 0 {
		userBuckets = 32
	}
	if eventBuckets <= 0 {
		eventBuckets = 64
	}
	m := &Manager{
		userBuckets:  userBuckets,
		eventBuckets: eventBuckets,
	}
	m.hasherPool = sync.Pool{
		New: func() interface{} {
			return murmur3.New64()
		},
	}
	return m
}

// UserBucket returns the partition bucket for a user id (0..userBuckets-1).
func (m *Manager) UserBucket(userID string) int {
	return m.bucket(userID, m.userBuckets)
}

// EventBucket returns the partition bucket for an audit event key.
func (m *Manager) EventBucket(key string) int {
	return m.bucket(key, m.eventBuckets)
}

// DateBucket returns the UTC date partition for audit rows.
func (m *Manager) DateBucket(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

func (m *Manager) bucket(id string, buckets int) int {
	h := m.hasherPool.Get().(hash.Hash64)
	defer m.hasherPool.Put(h)

	h.Reset()
	_, _ = h.Write([]byte(id))
	return int(h.Sum64() % uint64(buckets))
}

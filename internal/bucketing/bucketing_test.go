package bucketing

import (
	"fmt"
	"testing"
	"time"
)

func TestUserBucketIsStable(t *testing.T) {
	m := NewManager(32, 64)

	first := m.UserBucket("user-abc")
	for i := 0; i < 10; i++ {
		if got := m.UserBucket("user-abc"); got != first {
			t.Fatalf("bucket changed between calls: %d != %d", got, first)
		}
	}
	if first < 0 || first >= 32 {
		t.Fatalf("bucket out of range: %d", first)
	}
}

func TestEventBucketRange(t *testing.T) {
	m := NewManager(32, 64)

	for i := 0; i < 200; i++ {
		b := m.EventBucket(fmt.Sprintf("evt-%d", i))
		if b < 0 || b >= 64 {
			t.Fatalf("event bucket out of range: %d", b)
		}
	}
}

func TestDateBucket(t *testing.T) {
	m := NewManager(0, 0)

	at := time.Date(2025, 3, 14, 23, 59, 0, 0, time.UTC)
	if got := m.DateBucket(at); got != "2025-03-14" {
		t.Fatalf("unexpected date bucket: %s", got)
	}
}

package debuglog

import (
	"fmt"
	"sync"
	"testing"
)

func TestRingKeepsInsertionOrder(t *testing.T) {
	r := New(5)
	for i := 0; i < 3; i++ {
		r.Add("test", fmt.Sprintf("msg-%d", i))
	}

	got := r.Snapshot()
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	for i, e := range got {
		if e.Message != fmt.Sprintf("msg-%d", i) {
			t.Fatalf("entry %d out of order: %s", i, e.Message)
		}
	}
}

func TestRingEvictsOldestFirst(t *testing.T) {
	r := New(100)
	for i := 0; i < 150; i++ {
		r.Add("test", fmt.Sprintf("msg-%d", i))
	}

	if r.Len() != 100 {
		t.Fatalf("expected capacity 100, got %d", r.Len())
	}

	got := r.Snapshot()
	if got[0].Message != "msg-50" {
		t.Fatalf("expected oldest surviving entry msg-50, got %s", got[0].Message)
	}
	if got[99].Message != "msg-149" {
		t.Fatalf("expected newest entry msg-149, got %s", got[99].Message)
	}
}

func TestRingConcurrentAdds(t *testing.T) {
	r := New(10)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			r.Add("concurrent", fmt.Sprintf("msg-%d", n))
		}(i)
	}
	wg.Wait()

	if r.Len() != 10 {
		t.Fatalf("expected 10 entries after concurrent adds, got %d", r.Len())
	}
}

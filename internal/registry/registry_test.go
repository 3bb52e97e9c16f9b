package registry

import (
	"testing"
	"time"
)

func TestInsertLookupDelete(t *testing.T) {
	r := New()
	c := &Child{Pid: 123, ID: "worker", StartedAt: time.Now()}
	r.Insert(c)

	got, ok := r.Lookup(123)
	if !ok || got.ID != "worker" {
		t.Fatalf("expected to find pid 123, got %v ok=%v", got, ok)
	}

	if r.Len() != 1 {
		t.Fatalf("expected Len 1, got %d", r.Len())
	}

	deleted, ok := r.Delete(123)
	if !ok || deleted.Pid != 123 {
		t.Fatalf("expected Delete to return the record, got %v ok=%v", deleted, ok)
	}
	if r.Len() != 0 {
		t.Fatalf("expected Len 0 after delete, got %d", r.Len())
	}

	if _, ok := r.Lookup(123); ok {
		t.Fatalf("expected pid 123 to be gone after delete")
	}
}

func TestDeleteUnknownPidIsNoop(t *testing.T) {
	r := New()
	if _, ok := r.Delete(999); ok {
		t.Fatalf("expected Delete of unknown pid to report not-found")
	}
}

func TestOlderThan(t *testing.T) {
	r := New()
	now := time.Now()
	r.Insert(&Child{Pid: 1, StartedAt: now.Add(-10 * time.Second)})
	r.Insert(&Child{Pid: 2, StartedAt: now.Add(-1 * time.Second)})

	old := r.OlderThan(5*time.Second, now)
	if len(old) != 1 || old[0].Pid != 1 {
		t.Fatalf("expected only pid 1 to be older than 5s, got %v", old)
	}
}

func TestSnapshotIsIndependentOfLiveMap(t *testing.T) {
	r := New()
	r.Insert(&Child{Pid: 1})
	snap := r.Snapshot()
	r.Insert(&Child{Pid: 2})

	if len(snap) != 1 {
		t.Fatalf("expected snapshot to retain its size after a later insert, got %d entries", len(snap))
	}
}

func TestPids(t *testing.T) {
	r := New()
	r.Insert(&Child{Pid: 10})
	r.Insert(&Child{Pid: 20})

	pids := r.Pids()
	if len(pids) != 2 {
		t.Fatalf("expected 2 pids, got %v", pids)
	}
}

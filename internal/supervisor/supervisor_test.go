package supervisor

import (
	"context"
	"runtime"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/Paintersrp/procpool/internal/backend"
)

func skipOnWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell-based supervisor tests skipped on windows")
	}
}

func TestSpawnAdmissionCapBlocksUntilReap(t *testing.T) {
	skipOnWindows(t)

	sup, err := New(Options{MaxKids: 1, Backend: "process"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer sup.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := sup.Spawn(ctx, []string{"/bin/sh", "-c", "sleep 0.3"}); err != nil {
		t.Fatalf("spawn first: %v", err)
	}

	start := time.Now()
	if _, err := sup.Spawn(ctx, []string{"/bin/sh", "-c", "exit 0"}); err != nil {
		t.Fatalf("spawn second: %v", err)
	}
	if time.Since(start) < 200*time.Millisecond {
		t.Fatalf("expected the second spawn to block for admission while the pool was full")
	}
}

func TestReapRemovesFromRegistryAndInvokesOnReap(t *testing.T) {
	skipOnWindows(t)

	var mu sync.Mutex
	reaped := 0

	sup, err := New(Options{
		Backend: "process",
		OnReap: func(h backend.Handle, id string) {
			mu.Lock()
			reaped++
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer sup.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := sup.Spawn(ctx, []string{"/bin/sh", "-c", "exit 0"}, WithID("one")); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if !sup.Wait(ctx, 3*time.Second) {
		t.Fatalf("expected Wait to report the pool empty")
	}

	mu.Lock()
	defer mu.Unlock()
	if reaped != 1 {
		t.Fatalf("expected on_reap to fire exactly once, got %d", reaped)
	}
	if sup.CountKids() != 0 {
		t.Fatalf("expected CountKids to be 0 after reap, got %d", sup.CountKids())
	}
}

func TestAgeKillerTerminatesOverdueChild(t *testing.T) {
	skipOnWindows(t)

	sup, err := New(Options{Backend: "processgroup", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer sup.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := sup.Spawn(ctx, []string{"/bin/sh", "-c", "sleep 30"}); err != nil {
		t.Fatalf("spawn: %v", err)
	}

	if !sup.Wait(ctx, 8*time.Second) {
		t.Fatalf("expected the overdue child to be killed and reaped within the deadline")
	}
}

func TestCallbackPanicIsSwallowed(t *testing.T) {
	skipOnWindows(t)

	sup, err := New(Options{
		Backend: "process",
		OnSpawn: func(h backend.Handle, id string) { panic("boom") },
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer sup.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := sup.Spawn(ctx, []string{"/bin/sh", "-c", "exit 0"}); err != nil {
		t.Fatalf("expected Spawn to succeed despite the panicking callback, got %v", err)
	}
}

func TestSendSignalOnEmptyRegistryIsNoop(t *testing.T) {
	sup, err := New(Options{Backend: "process"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer sup.Close()

	sup.SendSignal(syscall.SIGTERM)
	sup.SendSignal(syscall.SIGTERM)
}

func TestNewUnknownBackendReturnsBackendNotFound(t *testing.T) {
	_, err := New(Options{Backend: "nonexistent-backend"})
	if err == nil {
		t.Fatalf("expected an error for an unregistered backend")
	}
	if _, ok := err.(*BackendNotFound); !ok {
		t.Fatalf("expected *BackendNotFound, got %T: %v", err, err)
	}
}

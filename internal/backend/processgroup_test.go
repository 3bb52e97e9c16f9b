package backend

import (
	"context"
	"io"
	"testing"
	"time"
)

func TestProcessGroupAdapterTerminate(t *testing.T) {
	skipOnWindows(t)

	adapter := NewProcessGroup()
	h, err := adapter.Start(context.Background(), []string{"/bin/sh", "-c", "trap '' TERM; echo ready; sleep 10"}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// Wait until the shell has installed its TERM trap; a SIGTERM sent
	// before that kills the shell outright.
	ready := make([]byte, len("ready\n"))
	if _, err := io.ReadFull(adapter.Streams(h).Stdout, ready); err != nil {
		t.Fatalf("read ready marker: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := adapter.(Terminator).Terminate(ctx, h); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 2*time.Second {
		t.Fatalf("expected Terminate to wait out the 2s grace period before escalating, took %v", elapsed)
	}

	if !adapter.IsTerminated(h) {
		t.Fatalf("expected child to be terminated after escalation to SIGKILL")
	}
	adapter.Close(h)
}

func TestProcessGroupAdapterTerminateIsIdempotentAfterExit(t *testing.T) {
	skipOnWindows(t)

	adapter := NewProcessGroup()
	h, err := adapter.Start(context.Background(), []string{"/bin/sh", "-c", "exit 0"}, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	adapter.Wait(h)

	if err := adapter.(Terminator).Terminate(context.Background(), h); err != nil {
		t.Fatalf("expected Terminate on an already-exited child to be a no-op, got %v", err)
	}
	adapter.Close(h)
}

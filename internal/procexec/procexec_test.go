package procexec

import (
	"context"
	"testing"
	"time"

	"secmcp/internal/errs"
)

func TestSpawn_NotFoundNeverSpawns(t *testing.T) {
	res, err := Spawn(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, time.Second, Limits{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ErrorType != errs.ErrNotFound {
		t.Errorf("ErrorType = %q, want %q", res.ErrorType, errs.ErrNotFound)
	}
	if res.ReturnCode != notFoundRC {
		t.Errorf("ReturnCode = %d, want %d", res.ReturnCode, notFoundRC)
	}
}

func TestSpawn_SuccessCapturesOutput(t *testing.T) {
	res, err := Spawn(context.Background(), []string{"/bin/echo", "hello"}, 2*time.Second, Limits{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReturnCode != 0 {
		t.Fatalf("ReturnCode = %d, want 0 (stderr=%q)", res.ReturnCode, res.Stderr)
	}
	if res.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if res.TimedOut {
		t.Error("TimedOut should be false for a fast command")
	}
}

func TestSpawn_TimeoutKillsProcessGroup(t *testing.T) {
	res, err := Spawn(context.Background(), []string{"/bin/sleep", "5"}, 100*time.Millisecond, Limits{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.TimedOut {
		t.Fatal("expected TimedOut = true")
	}
	if res.ErrorType != errs.ErrTimeout {
		t.Errorf("ErrorType = %q, want %q", res.ErrorType, errs.ErrTimeout)
	}
	// A run that hits the timeout is timed_out, never also reported as a
	// clean success.
	if res.ReturnCode == 0 {
		t.Error("a timed-out run must not report ReturnCode 0")
	}
}

func TestSpawn_NonZeroExit(t *testing.T) {
	res, err := Spawn(context.Background(), []string{"/bin/sh", "-c", "exit 3"}, time.Second, Limits{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReturnCode != 3 {
		t.Errorf("ReturnCode = %d, want 3", res.ReturnCode)
	}
	if res.ErrorType != errs.ErrExecution {
		t.Errorf("ErrorType = %q, want %q", res.ErrorType, errs.ErrExecution)
	}
}

func TestSpawn_ContextCancellationTerminatesChild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var res Result
	go func() {
		var err error
		res, err = Spawn(ctx, []string{"/bin/sleep", "5"}, 10*time.Second, Limits{}, nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Spawn did not return promptly after context cancellation")
	}
	if !res.TimedOut {
		t.Error("expected cancellation to surface the same TimedOut/ErrTimeout shape as a deadline timeout")
	}
}

func TestCapBuffer_ExactCapNotTruncated(t *testing.T) {
	var b capBuffer
	b.limit = 5
	if _, err := b.Write([]byte("abcde")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.truncated {
		t.Error("writing exactly the cap must not set truncated")
	}
	if b.String() != "abcde" {
		t.Errorf("String() = %q, want %q", b.String(), "abcde")
	}
}

func TestCapBuffer_OverCapTruncates(t *testing.T) {
	var b capBuffer
	b.limit = 5
	if _, err := b.Write([]byte("abcdef")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.truncated {
		t.Error("writing past the cap must set truncated")
	}
	if b.String() != "abcde" {
		t.Errorf("String() = %q, want %q", b.String(), "abcde")
	}
}

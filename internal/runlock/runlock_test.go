package runlock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestAcquireIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "tubeharvest.lock")

	first, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer first.Release()

	if _, err := Acquire(path); !errors.Is(err, ErrHeld) {
		t.Fatalf("expected ErrHeld, got %v", err)
	}

	held, pid, err := Held(path)
	if err != nil {
		t.Fatalf("Held: %v", err)
	}
	if !held || pid != os.Getpid() {
		t.Fatalf("expected lock held by %d, got held=%v pid=%d", os.Getpid(), held, pid)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	second, err := Acquire(path)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	_ = second.Release()
}

func TestHeldWithoutLockFile(t *testing.T) {
	held, pid, err := Held(filepath.Join(t.TempDir(), "missing.lock"))
	if err != nil || held || pid != 0 {
		t.Fatalf("unexpected result held=%v pid=%d err=%v", held, pid, err)
	}
}

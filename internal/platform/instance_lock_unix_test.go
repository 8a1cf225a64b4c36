//go:build unix

package platform

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireDirLockContentionAndRelease(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	dataDir := t.TempDir()

	lock1, err := AcquireDirLock("cellwatch", dataDir)
	if err != nil {
		t.Fatalf("acquire first lock: %v", err)
	}

	lock2, err := AcquireDirLock("cellwatch", dataDir)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected %v, got %v", ErrAlreadyRunning, err)
	}
	if lock2 != nil {
		t.Fatalf("expected second lock to be nil, got %#v", lock2)
	}

	other, err := AcquireDirLock("cellwatch", t.TempDir())
	if err != nil {
		t.Fatalf("expected other data dir to be lockable: %v", err)
	}
	_ = other.Release()

	if err := lock1.Release(); err != nil {
		t.Fatalf("release first lock: %v", err)
	}
	if err := lock1.Release(); err != nil {
		t.Fatalf("expected second release to be a no-op, got %v", err)
	}

	lock3, err := AcquireDirLock("cellwatch", dataDir)
	if err != nil {
		t.Fatalf("acquire lock after release: %v", err)
	}
	if err := lock3.Release(); err != nil {
		t.Fatalf("release third lock: %v", err)
	}
}

func TestUnixLockPathPrefersXDGRuntimeDir(t *testing.T) {
	runtimeDir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)

	path, err := unixLockPath("cellwatch-abc")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}
	if want := filepath.Join(runtimeDir, "cellwatch-abc.lock"); path != want {
		t.Fatalf("expected %q, got %q", want, path)
	}
}

func TestUnixLockPathFallsBackToTemp(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	path, err := unixLockPath("cellwatch-abc")
	if err != nil {
		t.Fatalf("resolve lock path: %v", err)
	}
	if !strings.Contains(path, "cellwatch-") || !strings.HasSuffix(path, "cellwatch-abc.lock") {
		t.Fatalf("unexpected fallback path %q", path)
	}
}

package platform

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
)

// ErrAlreadyRunning means another process holds the lock for the same data directory.
var ErrAlreadyRunning = errors.New("another cellwatch process is using this data directory")

// ErrLockUnsupported means the platform has no lock backend.
var ErrLockUnsupported = errors.New("instance lock unsupported")

// InstanceLock is held for as long as a process owns a data directory.
type InstanceLock interface {
	Release() error
}

// AcquireDirLock takes an exclusive, non-blocking lock scoped to dataDir.
// Two processes pointed at the same directory would poll the same modems and
// write the same database, so the second one is refused with ErrAlreadyRunning.
func AcquireDirLock(appName, dataDir string) (InstanceLock, error) {
	return acquireInstanceLock(lockName(appName, dataDir))
}

func lockName(appName, dataDir string) string {
	name := sanitizeLockComponent(appName, "app")
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return name
	}
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	sum := sha256.Sum256([]byte(filepath.Clean(dataDir)))

	return name + "-" + hex.EncodeToString(sum[:6])
}

func sanitizeLockComponent(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	sanitized := strings.Trim(b.String(), "_-.")
	if sanitized == "" {
		return fallback
	}

	return sanitized
}

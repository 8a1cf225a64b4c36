package app

import (
	"fmt"
	"strings"
	"time"
)

var (
	// Version is filled by ldflags in release builds.
	Version = "dev"
	// BuildDate is filled by ldflags in release builds.
	BuildDate = ""
)

// BuildInfo is the version block reported by the health endpoint.
type BuildInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	BuildDate string `json:"build_date,omitempty"`
}

func CurrentBuildInfo() BuildInfo {
	return BuildInfo{
		Name:      Name,
		Version:   BuildVersion(),
		BuildDate: BuildDateYMD(),
	}
}

func BuildVersion() string {
	version := strings.TrimSpace(Version)
	if version == "" {
		return "dev"
	}

	return version
}

// BuildDateYMD accepts RFC 3339 or a date-prefixed stamp and keeps the date.
func BuildDateYMD() string {
	raw := strings.TrimSpace(BuildDate)
	if raw == "" {
		return ""
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC().Format(time.DateOnly)
	}
	if len(raw) >= len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)]); err == nil {
			return raw[:len(time.DateOnly)]
		}
	}

	return raw
}

func (b BuildInfo) String() string {
	if b.BuildDate != "" {
		return fmt.Sprintf("%s %s (%s)", b.Name, b.Version, b.BuildDate)
	}

	return fmt.Sprintf("%s %s", b.Name, b.Version)
}

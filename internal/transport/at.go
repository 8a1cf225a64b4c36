package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed is wrapped by every final error result code.
var ErrCommandFailed = errors.New("at command failed")

// CommandError is a final ERROR, +CME ERROR or +CMS ERROR result.
type CommandError struct {
	Command string
	Result  string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Result)
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// Detail is the text after "+CME ERROR:" or "+CMS ERROR:", empty for a
// bare ERROR.
func (e *CommandError) Detail() string {
	for _, prefix := range []string{"+CME ERROR:", "+CMS ERROR:"} {
		if rest, ok := strings.CutPrefix(e.Result, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}

	return ""
}

// Command writes one AT command and collects the information lines up to
// the final result code. The command echo is skipped.
func Command(ctx context.Context, tr Transport, cmd string) ([]string, error) {
	if err := tr.WriteLine(ctx, cmd); err != nil {
		return nil, fmt.Errorf("send %s: %w", cmd, err)
	}

	var lines []string
	for {
		raw, err := tr.ReadLine(ctx)
		if err != nil {
			return nil, fmt.Errorf("await %s: %w", cmd, err)
		}
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, cmd):
			continue
		case line == "OK":
			return lines, nil
		case line == "ERROR",
			strings.HasPrefix(line, "+CME ERROR:"),
			strings.HasPrefix(line, "+CMS ERROR:"),
			line == "COMMAND NOT SUPPORT":
			return lines, &CommandError{Command: cmd, Result: line}
		default:
			lines = append(lines, line)
		}
	}
}

// ResponseValue returns the payload of the first line starting with prefix,
// e.g. ResponseValue(lines, "+COPS:").
func ResponseValue(lines []string, prefix string) (string, bool) {
	for _, line := range lines {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(rest), true
		}
	}

	return "", false
}

// ResponseValues returns the payloads of every line starting with prefix.
func ResponseValues(lines []string, prefix string) []string {
	var out []string
	for _, line := range lines {
		if rest, ok := strings.CutPrefix(line, prefix); ok {
			out = append(out, strings.TrimSpace(rest))
		}
	}

	return out
}

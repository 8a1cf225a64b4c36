package transport

import "log/slog"

// linkLogger tags AT link logs with the link kind and its endpoint.
func linkLogger(kind string, attrs ...any) *slog.Logger {
	return slog.Default().With(append([]any{"component", "transport", "link", kind}, attrs...)...)
}

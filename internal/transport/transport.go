package transport

import "context"

// Transport is a line-oriented link to an AT-command modem.
type Transport interface {
	Name() string
	Connect(ctx context.Context) error
	Close() error
	ReadLine(ctx context.Context) (string, error)
	WriteLine(ctx context.Context, line string) error
}

type StatusTargetResolver interface {
	StatusTarget() string
}

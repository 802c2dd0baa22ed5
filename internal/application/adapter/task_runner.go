package adapter

import "context"

// TaskRunner runs work outside the request lifecycle. The task receives its own
// context, so it keeps running after the HTTP response was written.
type TaskRunner interface {
	Go(name string, task func(ctx context.Context) error)
}

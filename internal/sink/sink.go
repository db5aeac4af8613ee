// Package sink fans finished results out to their destinations: the process
// log, Kafka, or Postgres. Sinks are selected by configuration and run for
// the lifetime of the server.
package sink

import (
	"context"

	"github.com/hdrsift/hdrsift/internal/result"
)

type Sink interface {
	Start(ctx context.Context) error
	Enqueue(r result.Result) error
	Close() error
	Name() string // Returns the sink name for metrics and logging
}

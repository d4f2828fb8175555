package engine

import (
	"log/slog"
)

// DefaultMaxContexts is the context cap used when Options.MaxContexts is 0.
const DefaultMaxContexts = 100000

// Options configures an Engine.
type Options struct {
	// Separator is the default join separator of path values. Default ":".
	Separator string

	// MaxContexts caps the flattened contexts of a run. 0 means
	// DefaultMaxContexts, a negative value disables the cap.
	MaxContexts int

	// Workers is the number of goroutines mapping contexts. Values below 2
	// map sequentially.
	Workers int

	// DumpStages logs every intermediate stage result at debug level.
	DumpStages bool

	// Logger receives run logs. Nil discards them.
	Logger *slog.Logger
}

func (o Options) contextLimit() int {
	switch {
	case o.MaxContexts == 0:
		return DefaultMaxContexts
	case o.MaxContexts < 0:
		return 0
	default:
		return o.MaxContexts
	}
}

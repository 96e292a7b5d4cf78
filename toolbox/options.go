package toolbox

import "log/slog"

type options struct {
	logger      *slog.Logger
	tables      []string
	stopOnError bool
}

type Option func(*options)

// WithLogger sets the logger used to report lookup misses, dropped columns
// and fetch failures. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTables builds only the named tables instead of every table of the
// dataset. Names the store does not know are reported and skipped.
func WithTables(names ...string) Option {
	return func(o *options) {
		o.tables = append(o.tables, names...)
	}
}

// WithStopOnError makes batch fetches return at the first failing column.
// By default every column of every row is attempted and failures are
// collected into the returned error.
func WithStopOnError(stop bool) Option {
	return func(o *options) {
		o.stopOnError = stop
	}
}

func buildOptions(opts []Option) options {
	result := options{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(&result)
	}

	return result
}

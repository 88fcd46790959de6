package driver

import (
	"context"

	"docbridge/bridge/common"
)

// --------------------------------------------------------------------------
// Interface Definitions
// --------------------------------------------------------------------------

// IDriver is a single live database client handle. All methods are safe
// for concurrent use; the underlying client is expected to pool its own
// sockets internally.
type IDriver interface {
	// Ping issues a minimal no-op round trip to the database
	Ping(ctx context.Context) error

	// Close releases the handle. Called exactly once by the owning connection.
	Close(ctx context.Context) error

	// InsertOne inserts a JSON document and returns the generated id
	InsertOne(ctx context.Context, database, collection string, document []byte) (string, error)

	// FindOne returns the first document matching the JSON filter.
	// The boolean reports whether a document matched at all.
	FindOne(ctx context.Context, database, collection string, filter []byte) ([]byte, bool, error)

	// UpdateOne applies a JSON update to the first matching document
	UpdateOne(ctx context.Context, database, collection string, filter, update []byte) (matched, modified int64, err error)

	// DeleteOne removes the first matching document and returns the delete count
	DeleteOne(ctx context.Context, database, collection string, filter []byte) (int64, error)

	// CountDocuments counts the documents matching the JSON filter
	CountDocuments(ctx context.Context, database, collection string, filter []byte) (int64, error)

	// Find returns every document matching the JSON filter, up to limit
	// documents (0 = no bound)
	Find(ctx context.Context, database, collection string, filter []byte, limit int64) ([][]byte, error)

	// InsertMany inserts a batch of JSON documents and returns the
	// generated ids in input order
	InsertMany(ctx context.Context, database, collection string, documents [][]byte) ([]string, error)

	// UpdateMany applies a JSON update to every matching document
	UpdateMany(ctx context.Context, database, collection string, filter, update []byte) (matched, modified int64, err error)

	// DeleteMany removes every matching document and returns the delete count
	DeleteMany(ctx context.Context, database, collection string, filter []byte) (int64, error)
}

// IDriverFactory materializes driver handles. The context carries the
// establish timeout; implementations must not block beyond it.
type IDriverFactory interface {
	Open(ctx context.Context, target string, opts Options) (IDriver, error)
}

// --------------------------------------------------------------------------
// Connection Options
// --------------------------------------------------------------------------

// Option bounds. Values outside these ranges are rejected at parse time
// so a bad configuration fails at Create, not at first use.
const (
	MaxPoolSizeLimit      = 1024
	SelectionTimeoutMinMs = 1
	SelectionTimeoutMaxMs = 60000
	SocketTimeoutMaxMs    = 300000
)

// Options is the validated set of driver-tunable connection knobs
type Options struct {
	// MaxPoolSize bounds the driver's internal socket pool (min 1)
	MaxPoolSize uint64

	// MinPoolSize is the number of sockets kept warm (0 = driver default)
	MinPoolSize uint64

	// SelectionTimeoutMs bounds server selection / socket acquisition
	SelectionTimeoutMs int64

	// SocketTimeoutMs bounds a single socket read or write (0 = driver default)
	SocketTimeoutMs int64
}

// DefaultOptions returns the options applied when a create request
// passes no explicit values
func DefaultOptions() Options {
	return Options{
		MaxPoolSize:        16,
		MinPoolSize:        0,
		SelectionTimeoutMs: 5000,
		SocketTimeoutMs:    0,
	}
}

// ParseOptions validates a raw option map from the protocol. Unrecognized
// keys are rejected, out-of-range values are rejected. Missing keys keep
// their defaults.
func ParseOptions(raw map[string]int64) (Options, error) {
	opts := DefaultOptions()

	for key, value := range raw {
		switch key {
		case "maxPoolSize":
			if value < 1 || value > MaxPoolSizeLimit {
				return Options{}, common.NewError(common.KindInvalidOptions,
					"maxPoolSize must be between 1 and %d, got %d", MaxPoolSizeLimit, value)
			}
			opts.MaxPoolSize = uint64(value)
		case "minPoolSize":
			if value < 0 || value > MaxPoolSizeLimit {
				return Options{}, common.NewError(common.KindInvalidOptions,
					"minPoolSize must be between 0 and %d, got %d", MaxPoolSizeLimit, value)
			}
			opts.MinPoolSize = uint64(value)
		case "selectionTimeoutMS":
			if value < SelectionTimeoutMinMs || value > SelectionTimeoutMaxMs {
				return Options{}, common.NewError(common.KindInvalidOptions,
					"selectionTimeoutMS must be between %d and %d, got %d", SelectionTimeoutMinMs, SelectionTimeoutMaxMs, value)
			}
			opts.SelectionTimeoutMs = value
		case "socketTimeoutMS":
			if value < 0 || value > SocketTimeoutMaxMs {
				return Options{}, common.NewError(common.KindInvalidOptions,
					"socketTimeoutMS must be between 0 and %d, got %d", SocketTimeoutMaxMs, value)
			}
			opts.SocketTimeoutMs = value
		default:
			return Options{}, common.NewError(common.KindInvalidOptions, "unrecognized option %q", key)
		}
	}

	if opts.MinPoolSize > opts.MaxPoolSize {
		return Options{}, common.NewError(common.KindInvalidOptions,
			"minPoolSize (%d) must not exceed maxPoolSize (%d)", opts.MinPoolSize, opts.MaxPoolSize)
	}

	return opts, nil
}

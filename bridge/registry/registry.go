package registry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
)

var Logger = logger.GetLogger("registry")

// --------------------------------------------------------------------------
// Health
// --------------------------------------------------------------------------

// Health is the outcome of a ping
type Health string

const (
	Healthy   Health = "healthy"
	Unhealthy Health = "unhealthy"
	NotFound  Health = "not_found"
)

// --------------------------------------------------------------------------
// Stats
// --------------------------------------------------------------------------

// ConnectionStats is the per-connection slice of a stats snapshot
type ConnectionStats struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"` // redacted
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	AgeSeconds float64   `json:"age_seconds"`
}

// Stats is a read-only snapshot of the registry
type Stats struct {
	Count       int               `json:"count"`
	Connections []ConnectionStats `json:"connections"`
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

// Registry is the in-memory store of live connections.
//
// Concurrency: reads (Get/Stats/Exec) go through the concurrent map.
// Structural mutation (capacity accounting, insert, remove) serializes
// on mu; the critical sections never contain a network round trip, the
// driver dial happens outside the lock against a reserved slot.
type Registry struct {
	config  common.RegistryConfig
	factory driver.IDriverFactory

	conns *xsync.MapOf[string, *Connection]

	mu      sync.Mutex
	tracked int // live + reserved slots, bounded by config.MaxConnections
}

// New creates a new connection registry backed by the given driver factory
func New(config common.RegistryConfig, factory driver.IDriverFactory) *Registry {
	return &Registry{
		config:  config,
		factory: factory,
		conns:   xsync.NewMapOf[string, *Connection](),
	}
}

// Create validates the target and options, materializes a driver handle
// within the establish timeout and stores a new Active connection.
// On any failure nothing is stored.
func (r *Registry) Create(target string, rawOpts map[string]int64) (string, error) {
	if err := validateTarget(target); err != nil {
		return "", err
	}

	opts, err := driver.ParseOptions(rawOpts)
	if err != nil {
		return "", err
	}

	// Reserve a slot before dialing so the capacity bound holds even
	// with many concurrent Create calls in flight
	r.mu.Lock()
	if r.tracked >= r.config.MaxConnections {
		r.mu.Unlock()
		return "", common.NewError(common.KindRequestRejected,
			"registry at capacity (%d connections)", r.config.MaxConnections)
	}
	r.tracked++
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(r.config.ConnectTimeoutMs)*time.Millisecond)
	defer cancel()

	handle, err := r.factory.Open(ctx, target, opts)
	if err != nil {
		r.mu.Lock()
		r.tracked--
		r.mu.Unlock()
		return "", err
	}

	conn := &Connection{
		id:        uuid.NewString(),
		target:    target,
		opts:      opts,
		handle:    handle,
		createdAt: time.Now(),
		status:    StatusActive,
	}
	conn.lastUsed.Store(conn.createdAt.UnixNano())

	r.conns.Store(conn.id, conn)
	Logger.Infof("Created connection %s -> %s", conn.id, conn.Target())

	return conn.id, nil
}

// Get returns the connection for the id. Pure lookup, no side effects.
func (r *Registry) Get(id string) (*Connection, error) {
	conn, ok := r.conns.Load(id)
	if !ok {
		return nil, common.NewError(common.KindNotFound, "connection %s not found", id)
	}
	return conn, nil
}

// Close releases the connection's driver handle and removes it from the
// registry. Idempotent: an unknown or already closed id returns false.
func (r *Registry) Close(id string) bool {
	conn, ok := r.conns.Load(id)
	if !ok {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(r.config.ConnectTimeoutMs)*time.Millisecond)
	defer cancel()

	// close serializes concurrent callers, only one of them wins
	if !conn.close(ctx) {
		return false
	}

	r.conns.Delete(id)
	r.mu.Lock()
	r.tracked--
	r.mu.Unlock()

	Logger.Infof("Closed connection %s", id)
	return true
}

// Ping issues a health round trip through the connection's driver
// handle with its own timeout. Updates lastUsedAt on success only.
func (r *Registry) Ping(id string) Health {
	conn, ok := r.conns.Load(id)
	if !ok || conn.Status() != StatusActive {
		return NotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(r.config.PingTimeoutMs)*time.Millisecond)
	defer cancel()

	if err := conn.handle.Ping(ctx); err != nil {
		Logger.Warningf("Ping failed for connection %s: %v", id, err)
		return Unhealthy
	}

	conn.touch()
	return Healthy
}

// Exec runs a document operation through the connection's driver handle.
// The callback receives the handle together with a context bounded by
// the operation timeout. lastUsedAt updates only when fn succeeds.
func (r *Registry) Exec(id string, fn func(ctx context.Context, h driver.IDriver) error) error {
	conn, ok := r.conns.Load(id)
	if !ok {
		return common.NewError(common.KindNotFound, "connection %s not found", id)
	}
	if conn.Status() != StatusActive {
		return common.NewError(common.KindConnectionUnavailable, "connection %s is closed", id)
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(r.config.OperationTimeoutMs)*time.Millisecond)
	defer cancel()

	if err := fn(ctx, conn.handle); err != nil {
		return err
	}

	conn.touch()
	return nil
}

// Stats returns a snapshot of all tracked connections. O(n), holds no
// lock while building the per-connection entries.
func (r *Registry) Stats() Stats {
	now := time.Now()
	stats := Stats{Connections: []ConnectionStats{}}

	r.conns.Range(func(id string, conn *Connection) bool {
		stats.Connections = append(stats.Connections, ConnectionStats{
			ID:         conn.ID(),
			Target:     conn.Target(),
			Status:     conn.Status(),
			CreatedAt:  conn.CreatedAt(),
			LastUsedAt: conn.LastUsedAt(),
			AgeSeconds: now.Sub(conn.CreatedAt()).Seconds(),
		})
		return true
	})

	stats.Count = len(stats.Connections)
	return stats
}

// CloseAll closes every tracked connection. Called on process shutdown.
func (r *Registry) CloseAll() {
	var ids []string
	r.conns.Range(func(id string, _ *Connection) bool {
		ids = append(ids, id)
		return true
	})

	for _, id := range ids {
		r.Close(id)
	}

	if len(ids) > 0 {
		Logger.Infof("Closed %d connections on shutdown", len(ids))
	}
}

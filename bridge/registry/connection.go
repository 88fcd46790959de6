package registry

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
)

// --------------------------------------------------------------------------
// Connection Status
// --------------------------------------------------------------------------

// Status is the lifecycle state of a connection. The transition is
// monotonic: once Closed, a connection never becomes Active again.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// --------------------------------------------------------------------------
// Connection Entity
// --------------------------------------------------------------------------

// Connection is one logical connection to the document store. It is
// constructed by the registry only and owns its driver handle
// exclusively until close.
type Connection struct {
	id        string
	target    string // raw connection string, never exposed unredacted
	opts      driver.Options
	handle    driver.IDriver
	createdAt time.Time
	lastUsed  atomic.Int64 // unix nanos, updated on successful operations

	mu     sync.Mutex // serializes status transitions
	status Status
}

// ID returns the opaque connection id
func (c *Connection) ID() string { return c.id }

// Status returns the current lifecycle state
func (c *Connection) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CreatedAt returns the creation timestamp
func (c *Connection) CreatedAt() time.Time { return c.createdAt }

// LastUsedAt returns the time of the last successful operation
func (c *Connection) LastUsedAt() time.Time {
	return time.Unix(0, c.lastUsed.Load())
}

// Target returns the connection string with credentials masked
func (c *Connection) Target() string {
	return redactTarget(c.target)
}

// touch records a successful operation through the connection
func (c *Connection) touch() {
	c.lastUsed.Store(time.Now().UnixNano())
}

// close releases the driver handle. The status check under the mutex
// makes the release happen exactly once, no matter how many callers
// race on it. Returns false if the connection was closed already.
func (c *Connection) close(ctx context.Context) bool {
	c.mu.Lock()
	if c.status == StatusClosed {
		c.mu.Unlock()
		return false
	}
	c.status = StatusClosed
	c.mu.Unlock()

	if err := c.handle.Close(ctx); err != nil {
		Logger.Warningf("Failed to release driver handle for connection %s: %v", c.id, err)
	}
	return true
}

// --------------------------------------------------------------------------
// Target Validation / Redaction
// --------------------------------------------------------------------------

// validTargetSchemes are the accepted connection string schemes
var validTargetSchemes = map[string]bool{
	"mongodb":     true,
	"mongodb+srv": true,
}

// validateTarget checks the connection string for well-formedness
// before any dial happens
func validateTarget(target string) error {
	if target == "" {
		return common.NewError(common.KindInvalidTarget, "target must not be empty")
	}

	u, err := url.Parse(target)
	if err != nil {
		return common.WrapError(common.KindInvalidTarget, err, "malformed target %q", redactTarget(target))
	}
	if !validTargetSchemes[u.Scheme] {
		return common.NewError(common.KindInvalidTarget, "unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return common.NewError(common.KindInvalidTarget, "target %q has no host", redactTarget(target))
	}
	return nil
}

// redactTarget masks embedded credentials so connection strings can be
// logged and surfaced safely. Unparseable targets are masked entirely.
func redactTarget(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "(redacted)"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.Redacted()
}

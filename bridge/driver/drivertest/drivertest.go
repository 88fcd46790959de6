// Package drivertest provides a counting fake implementation of the
// driver interfaces for registry and server tests.
package drivertest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"docbridge/bridge/common"
	"docbridge/bridge/driver"
)

// Factory is a fake driver factory. The zero value opens healthy
// drivers for every target; the knobs below change that behavior.
type Factory struct {
	// FailOpen makes Open fail with the given error
	FailOpen error

	// OpenDelayCtx makes Open block until the context expires (simulates
	// an unreachable target with a hanging dial)
	OpenDelayCtx bool

	// PingErr is returned by every Ping call of opened drivers
	PingErr error

	// Counters
	Opened atomic.Int64

	// drivers keeps every driver handed out, in open order
	mu      sync.Mutex
	drivers []*Driver
}

// Open implements driver.IDriverFactory
func (f *Factory) Open(ctx context.Context, target string, opts driver.Options) (driver.IDriver, error) {
	if f.FailOpen != nil {
		return nil, f.FailOpen
	}
	if f.OpenDelayCtx {
		<-ctx.Done()
		return nil, common.WrapError(common.KindUnreachable, ctx.Err(), "dial timed out")
	}

	f.Opened.Add(1)
	d := &Driver{target: target, opts: opts, pingErr: f.PingErr}
	f.mu.Lock()
	f.drivers = append(f.drivers, d)
	f.mu.Unlock()
	return d, nil
}

// Last returns the most recently opened driver (nil if none)
func (f *Factory) Last() *Driver {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.drivers) == 0 {
		return nil
	}
	return f.drivers[len(f.drivers)-1]
}

// Driver is a fake driver handle that counts releases and pings
type Driver struct {
	target  string
	opts    driver.Options
	pingErr error

	Closed atomic.Int64
	Pings  atomic.Int64

	// FindValue is returned by FindOne when set
	FindValue []byte

	// FindDocs is returned by Find when set (subject to the limit)
	FindDocs [][]byte
}

// Target returns the target the driver was opened for
func (d *Driver) Target() string { return d.target }

// Opts returns the options the driver was opened with
func (d *Driver) Opts() driver.Options { return d.opts }

// --------------------------------------------------------------------------
// Interface Methods (docu see driver.IDriver)
// --------------------------------------------------------------------------

func (d *Driver) Ping(ctx context.Context) error {
	d.Pings.Add(1)
	return d.pingErr
}

func (d *Driver) Close(ctx context.Context) error {
	d.Closed.Add(1)
	return nil
}

func (d *Driver) InsertOne(ctx context.Context, database, collection string, document []byte) (string, error) {
	return "000000000000000000000001", nil
}

func (d *Driver) FindOne(ctx context.Context, database, collection string, filter []byte) ([]byte, bool, error) {
	if d.FindValue == nil {
		return nil, false, nil
	}
	return d.FindValue, true, nil
}

func (d *Driver) UpdateOne(ctx context.Context, database, collection string, filter, update []byte) (int64, int64, error) {
	return 1, 1, nil
}

func (d *Driver) DeleteOne(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	return 1, nil
}

func (d *Driver) CountDocuments(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	return 0, nil
}

func (d *Driver) Find(ctx context.Context, database, collection string, filter []byte, limit int64) ([][]byte, error) {
	docs := d.FindDocs
	if limit > 0 && int64(len(docs)) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (d *Driver) InsertMany(ctx context.Context, database, collection string, documents [][]byte) ([]string, error) {
	ids := make([]string, len(documents))
	for i := range documents {
		ids[i] = fmt.Sprintf("%024x", i+1)
	}
	return ids, nil
}

func (d *Driver) UpdateMany(ctx context.Context, database, collection string, filter, update []byte) (int64, int64, error) {
	return 2, 2, nil
}

func (d *Driver) DeleteMany(ctx context.Context, database, collection string, filter []byte) (int64, error) {
	return 2, nil
}

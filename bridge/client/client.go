package client

import (
	"encoding/json"

	"github.com/puzpuzpuz/xsync/v3"

	"docbridge/bridge/common"
	"docbridge/bridge/delivery"
	"docbridge/bridge/dispatch"
	"docbridge/bridge/registry"
	"docbridge/bridge/serializer"
	"docbridge/bridge/transport"
)

// Client is the application-facing handle to a bridge server. It owns
// the transport, the dispatcher and the completion queue.
//
// Document operations run through the dispatcher's worker pool with the
// configured retry policy. Connection lifecycle operations run through
// the same path but are never retried, so a create or close is executed
// at most once.
//
// Completions of asynchronous operations are buffered until the caller
// drains them with ProcessCompletions. Callbacks run on the draining
// goroutine only, never on a dispatcher worker.
type Client struct {
	config     common.ClientConfig
	transport  transport.IClientTransport
	serializer serializer.ISerializer
	queue      *delivery.Queue[dispatch.Completion]
	dispatcher *dispatch.Dispatcher

	// closedConns tracks the connection ids closed through this client
	// so tasks against them fail fast without a round trip. Ids this
	// client never saw pass through: the server answers for them, which
	// keeps connections created by other processes usable here.
	closedConns *xsync.MapOf[string, struct{}]
}

// NewClient creates a client, connects the transport and starts the
// dispatcher worker pool.
//
// Usage:
//
//	c, err := client.NewClient(
//		*config,
//		http.NewHTTPClientTransport(),
//		serializer.NewJSONSerializer(),
//	)
func NewClient(
	config common.ClientConfig,
	t transport.IClientTransport,
	s serializer.ISerializer,
) (*Client, error) {
	if err := t.Connect(config); err != nil {
		return nil, err
	}

	c := &Client{
		config:      config,
		transport:   t,
		serializer:  s,
		queue:       delivery.NewQueue[dispatch.Completion](),
		closedConns: xsync.NewMapOf[string, struct{}](),
	}

	c.dispatcher = dispatch.NewDispatcher(config, t, c.queue, func(connID string) bool {
		_, closed := c.closedConns.Load(connID)
		return !closed
	})

	Logger.Infof("Created bridge client")
	Logger.Infof(config.String())

	return c, nil
}

// --------------------------------------------------------------------------
// Connection Lifecycle
// --------------------------------------------------------------------------

// CreateConnection registers a new server-side connection for the given
// target and returns its id. Never retried: a slow create is not run
// twice just because the response was late.
func (c *Client) CreateConnection(target string, options map[string]int64) (string, error) {
	resp, err := c.invokeSync(common.NewConnCreateRequest(target, options), 0)
	if err != nil {
		return "", err
	}
	return resp.ConnID, nil
}

// CloseConnection closes the server-side connection. The boolean
// reports whether a live connection was actually closed.
func (c *Client) CloseConnection(connID string) (bool, error) {
	// Stop routing new document tasks to the connection right away
	c.closedConns.Store(connID, struct{}{})

	resp, err := c.invokeSync(common.NewConnCloseRequest(connID), 0)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

// PingConnection issues a health round trip through the server-side
// connection. Returns true if the database answered.
func (c *Client) PingConnection(connID string) (bool, error) {
	resp, err := c.invokeSync(common.NewConnPingRequest(connID), 0)
	if err != nil {
		return false, err
	}
	return resp.Ok, nil
}

// Stats fetches a snapshot of the server's connection registry
func (c *Client) Stats() (registry.Stats, error) {
	var stats registry.Stats
	resp, err := c.invokeSync(common.NewConnStatsRequest(), 0)
	if err != nil {
		return stats, err
	}
	if err := json.Unmarshal(resp.Value, &stats); err != nil {
		return stats, common.WrapError(common.KindUnknown, err, "malformed stats snapshot")
	}
	return stats, nil
}

// --------------------------------------------------------------------------
// Document Operations
// --------------------------------------------------------------------------

// Collection returns a handle for document operations against one
// collection through the given connection
func (c *Client) Collection(connID, database, collection string) *Collection {
	return &Collection{
		client:     c,
		connID:     connID,
		database:   database,
		collection: collection,
	}
}

// --------------------------------------------------------------------------
// Completion Handling
// --------------------------------------------------------------------------

// ProcessCompletions drains up to max buffered completions and invokes
// their callbacks on the calling goroutine. max <= 0 drains everything
// currently buffered. Returns the number of completions processed.
//
// This is the per-tick hook for callers with their own event loop: call
// it from the loop and callbacks never run concurrently with it.
func (c *Client) ProcessCompletions(max int) int {
	processed := 0
	for {
		if max > 0 && processed >= max {
			return processed
		}
		select {
		case completion, ok := <-c.queue.Recv():
			if !ok {
				return processed
			}
			completion.Invoke()
			processed++
		default:
			return processed
		}
	}
}

// Cancel requests cancellation of an in-flight task. Returns false if
// the task is unknown or already terminal.
func (c *Client) Cancel(taskID string) bool {
	return c.dispatcher.Cancel(taskID)
}

// DispatcherStats returns the dispatcher's aggregate counters
func (c *Client) DispatcherStats() dispatch.Stats {
	return c.dispatcher.Stats()
}

// Close stops the dispatcher, delivers every pending completion and
// closes the transport. Pending callbacks are invoked with their final
// outcome, nothing is silently dropped.
func (c *Client) Close() error {
	c.dispatcher.Stop()
	c.queue.Drain(func(completion *dispatch.Completion) {
		completion.Invoke()
	})
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Request Plumbing
// --------------------------------------------------------------------------

// invokeSync executes a request through the dispatcher and blocks until
// its terminal outcome
func (c *Client) invokeSync(req *common.Message, maxRetries int) (*common.Message, error) {
	task, err := c.newTask(req, maxRetries)
	if err != nil {
		return nil, err
	}

	respBytes, err := c.dispatcher.SubmitSync(task)
	if err != nil {
		return nil, err
	}
	return decodeResponse(req.MsgType, respBytes, c.serializer)
}

// invokeAsync submits a request and returns the task id immediately.
// The callback fires from ProcessCompletions once the task is terminal.
func (c *Client) invokeAsync(req *common.Message, maxRetries int, callback func(*common.Message, error)) (string, error) {
	task, err := c.newTask(req, maxRetries)
	if err != nil {
		return "", err
	}

	err = c.dispatcher.Submit(task, func(result []byte, err error) {
		if callback == nil {
			return
		}
		if err != nil {
			callback(nil, err)
			return
		}
		callback(decodeResponse(req.MsgType, result, c.serializer))
	})
	if err != nil {
		return "", err
	}
	return task.ID(), nil
}

// newTask serializes the request into a dispatchable task. Only
// document operations carry the connection id into the task: the
// dispatcher's active check guards them, while lifecycle operations
// must reach the server even for ids this client no longer tracks.
func (c *Client) newTask(req *common.Message, maxRetries int) (*dispatch.Task, error) {
	reqBytes, err := c.serializer.Serialize(*req)
	if err != nil {
		return nil, common.WrapError(common.KindUnknown, err, "failed to serialize request")
	}

	guardID := ""
	switch req.MsgType {
	case common.MsgTDocInsert, common.MsgTDocFind, common.MsgTDocUpdate,
		common.MsgTDocDelete, common.MsgTDocCount, common.MsgTDocFindMany,
		common.MsgTDocInsertMany, common.MsgTDocUpdateMany, common.MsgTDocDeleteMany:
		guardID = req.ConnID
	}

	task := dispatch.NewTask(guardID, string(req.MsgType), string(req.MsgType), reqBytes)
	task.MaxRetries = maxRetries
	task.Headers = map[string]string{"X-Request-Id": task.ID()}
	return task, nil
}

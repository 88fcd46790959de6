package client

import (
	"testing"
	"time"

	"docbridge/bridge/common"
	"docbridge/bridge/driver/drivertest"
	"docbridge/bridge/registry"
	"docbridge/bridge/serializer"
	srv "docbridge/bridge/server"
)

// loopbackTransport short-circuits the wire: requests go straight into
// a server adapter backed by a fake driver factory
type loopbackTransport struct {
	serializer serializer.ISerializer
	adapter    srv.IBridgeAdapter
	registry   *registry.Registry
}

func (l *loopbackTransport) Connect(config common.ClientConfig) error { return nil }

func (l *loopbackTransport) Send(route string, req []byte, _ map[string]string) ([]byte, error) {
	var msg common.Message
	if err := l.serializer.Deserialize(req, &msg); err != nil {
		return nil, err
	}
	resp := l.adapter.Handle(&msg, l.registry)
	return l.serializer.Serialize(*resp)
}

func (l *loopbackTransport) Close() error { return nil }

func newTestClient(t *testing.T) (*Client, *drivertest.Factory, *registry.Registry) {
	t.Helper()

	factory := &drivertest.Factory{}
	reg := registry.New(common.RegistryConfig{
		MaxConnections:     8,
		ConnectTimeoutMs:   100,
		PingTimeoutMs:      100,
		OperationTimeoutMs: 100,
	}, factory)

	s := serializer.NewJSONSerializer()
	transport := &loopbackTransport{serializer: s, adapter: srv.NewRegistryAdapter(), registry: reg}

	c, err := NewClient(common.ClientConfig{
		AttemptTimeoutMs: 200,
		MaxRetries:       2,
		BackoffBaseMs:    1,
		BackoffMaxMs:     5,
		Workers:          2,
		Transport: common.ClientTransportConfig{
			Endpoints: []string{"loopback"},
		},
	}, transport, s)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	return c, factory, reg
}

func TestConnectionLifecycle(t *testing.T) {
	c, factory, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}

	healthy, err := c.PingConnection(connID)
	if err != nil || !healthy {
		t.Errorf("expected healthy ping, got %v / %v", healthy, err)
	}

	stats, err := c.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Count != 1 || stats.Connections[0].ID != connID {
		t.Errorf("unexpected stats %+v", stats)
	}

	closed, err := c.CloseConnection(connID)
	if err != nil || !closed {
		t.Errorf("expected close true, got %v / %v", closed, err)
	}
	closed, err = c.CloseConnection(connID)
	if err != nil || closed {
		t.Errorf("second close should report false, got %v / %v", closed, err)
	}
	if got := factory.Last().Closed.Load(); got != 1 {
		t.Errorf("driver released %d times, want 1", got)
	}
}

func TestCreateConnectionInvalidTarget(t *testing.T) {
	c, _, _ := newTestClient(t)

	_, err := c.CreateConnection("mongodb://bad::uri", nil)
	if !common.IsKind(err, common.KindInvalidTarget) {
		t.Fatalf("expected %s, got %v", common.KindInvalidTarget, err)
	}
}

func TestDocumentOperationsSync(t *testing.T) {
	c, factory, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}
	factory.Last().FindValue = []byte(`{"name":"ada"}`)

	users := c.Collection(connID, "app", "users")

	id, err := users.InsertOne([]byte(`{"name":"ada"}`))
	if err != nil || id == "" {
		t.Errorf("InsertOne: %q / %v", id, err)
	}

	doc, found, err := users.FindOne([]byte(`{"name":"ada"}`))
	if err != nil || !found || string(doc) != `{"name":"ada"}` {
		t.Errorf("FindOne: %s / %v / %v", doc, found, err)
	}

	res, err := users.UpdateOne([]byte(`{}`), []byte(`{"$set":{"a":1}}`))
	if err != nil || res.Matched != 1 || res.Modified != 1 {
		t.Errorf("UpdateOne: %+v / %v", res, err)
	}

	deleted, err := users.DeleteOne([]byte(`{}`))
	if err != nil || deleted != 1 {
		t.Errorf("DeleteOne: %d / %v", deleted, err)
	}

	if _, err := users.CountDocuments(nil); err != nil {
		t.Errorf("CountDocuments: %v", err)
	}
}

func TestDocumentOperationAsyncCallbackOnProcess(t *testing.T) {
	c, _, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}

	done := make(chan string, 1)
	taskID, err := c.Collection(connID, "app", "users").InsertOneAsync(
		[]byte(`{"n":1}`),
		func(insertedID string, err error) {
			if err != nil {
				t.Errorf("async insert failed: %v", err)
			}
			done <- insertedID
		})
	if err != nil {
		t.Fatalf("InsertOneAsync failed: %v", err)
	}
	if taskID == "" {
		t.Fatal("empty task id")
	}

	// The callback must not fire before ProcessCompletions runs
	deadline := time.After(2 * time.Second)
	for {
		select {
		case id := <-done:
			if id == "" {
				t.Error("callback got empty inserted id")
			}
			return
		case <-deadline:
			t.Fatal("callback never fired")
		default:
			c.ProcessCompletions(16)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestDocumentOperationsMany(t *testing.T) {
	c, factory, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}
	factory.Last().FindDocs = [][]byte{
		[]byte(`{"n":1}`), []byte(`{"n":2}`), []byte(`{"n":3}`),
	}

	users := c.Collection(connID, "app", "users")

	ids, err := users.InsertMany([][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`)})
	if err != nil || len(ids) != 2 {
		t.Errorf("InsertMany: %v / %v", ids, err)
	}

	docs, err := users.Find(nil, 0)
	if err != nil || len(docs) != 3 {
		t.Errorf("Find: %d docs / %v", len(docs), err)
	}
	docs, err = users.Find(nil, 2)
	if err != nil || len(docs) != 2 {
		t.Errorf("Find with limit: %d docs / %v", len(docs), err)
	}

	res, err := users.UpdateMany([]byte(`{}`), []byte(`{"$set":{"a":1}}`))
	if err != nil || res.Matched != 2 || res.Modified != 2 {
		t.Errorf("UpdateMany: %+v / %v", res, err)
	}

	deleted, err := users.DeleteMany([]byte(`{}`))
	if err != nil || deleted != 2 {
		t.Errorf("DeleteMany: %d / %v", deleted, err)
	}
}

func TestDocumentOperationOnForeignConnection(t *testing.T) {
	c, _, reg := newTestClient(t)

	// The connection exists server-side but was not created through
	// this client, like an id handed over by another process. Document
	// operations must still reach the server.
	connID, err := reg.Create("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("registry Create failed: %v", err)
	}

	count, err := c.Collection(connID, "app", "users").CountDocuments(nil)
	if err != nil {
		t.Fatalf("CountDocuments on foreign connection: %v", err)
	}
	if count != 0 {
		t.Errorf("unexpected count %d", count)
	}

	// Unknown ids are answered by the server too, it is the authority
	// on connection state
	_, _, err = c.Collection("no-such-id", "app", "users").FindOne(nil)
	if !common.IsKind(err, common.KindNotFound) {
		t.Fatalf("expected %s for unknown id, got %v", common.KindNotFound, err)
	}
}

func TestDocumentOperationOnClosedConnectionFailsFast(t *testing.T) {
	c, _, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}
	if _, err := c.CloseConnection(connID); err != nil {
		t.Fatalf("CloseConnection failed: %v", err)
	}

	// The client stopped tracking the connection, the task fails
	// locally without a server round trip
	_, _, err = c.Collection(connID, "app", "users").FindOne(nil)
	if !common.IsKind(err, common.KindConnectionUnavailable) {
		t.Fatalf("expected %s, got %v", common.KindConnectionUnavailable, err)
	}
}

func TestCloseDeliversPendingCompletions(t *testing.T) {
	c, _, _ := newTestClient(t)

	connID, err := c.CreateConnection("mongodb://localhost:27017", nil)
	if err != nil {
		t.Fatalf("CreateConnection failed: %v", err)
	}

	fired := make(chan struct{}, 8)
	for i := 0; i < 4; i++ {
		_, err := c.Collection(connID, "app", "users").CountDocumentsAsync(nil,
			func(count int64, err error) { fired <- struct{}{} })
		if err != nil {
			t.Fatalf("CountDocumentsAsync failed: %v", err)
		}
	}

	// Close must invoke every pending callback instead of dropping it
	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(fired) != 4 {
		t.Errorf("expected 4 callbacks after Close, got %d", len(fired))
	}
}

package server

import (
	"encoding/json"
	"testing"

	"docbridge/bridge/common"
	"docbridge/bridge/driver/drivertest"
	"docbridge/bridge/registry"
)

func newTestRegistry(t *testing.T) (*registry.Registry, *drivertest.Factory) {
	t.Helper()
	factory := &drivertest.Factory{}
	cfg := common.RegistryConfig{
		MaxConnections:     8,
		ConnectTimeoutMs:   100,
		PingTimeoutMs:      100,
		OperationTimeoutMs: 100,
	}
	return registry.New(cfg, factory), factory
}

func mustCreate(t *testing.T, adapter IBridgeAdapter, reg *registry.Registry) string {
	t.Helper()
	resp := adapter.Handle(common.NewConnCreateRequest("mongodb://localhost:27017", nil), reg)
	if resp.Failed() {
		t.Fatalf("conn.create failed: %s", resp.Err)
	}
	if resp.ConnID == "" {
		t.Fatal("conn.create returned empty id")
	}
	return resp.ConnID
}

func TestAdapterConnLifecycle(t *testing.T) {
	reg, factory := newTestRegistry(t)
	adapter := NewRegistryAdapter()

	connID := mustCreate(t, adapter, reg)

	// Ping the live connection
	resp := adapter.Handle(common.NewConnPingRequest(connID), reg)
	if resp.Failed() || !resp.Ok {
		t.Errorf("expected healthy ping, got %+v", resp)
	}

	// Close it, first close reports true
	resp = adapter.Handle(common.NewConnCloseRequest(connID), reg)
	if !resp.Ok {
		t.Error("first close should report true")
	}
	resp = adapter.Handle(common.NewConnCloseRequest(connID), reg)
	if resp.Ok {
		t.Error("second close should report false")
	}
	if got := factory.Last().Closed.Load(); got != 1 {
		t.Errorf("driver released %d times, want 1", got)
	}

	// Ping after close reports not found
	resp = adapter.Handle(common.NewConnPingRequest(connID), reg)
	if !resp.Failed() || common.Kind(resp.ErrKind) != common.KindNotFound {
		t.Errorf("expected %s after close, got %+v", common.KindNotFound, resp)
	}
}

func TestAdapterCreateInvalidTarget(t *testing.T) {
	reg, _ := newTestRegistry(t)
	adapter := NewRegistryAdapter()

	resp := adapter.Handle(common.NewConnCreateRequest("mongodb://bad::uri", nil), reg)
	if !resp.Failed() {
		t.Fatal("expected failure for malformed target")
	}
	if common.Kind(resp.ErrKind) != common.KindInvalidTarget {
		t.Errorf("expected kind %s, got %s", common.KindInvalidTarget, resp.ErrKind)
	}
}

func TestAdapterDocOperations(t *testing.T) {
	reg, factory := newTestRegistry(t)
	adapter := NewRegistryAdapter()
	connID := mustCreate(t, adapter, reg)
	factory.Last().FindValue = []byte(`{"name":"test"}`)

	// insertOne
	resp := adapter.Handle(common.NewDocInsertRequest(connID, "db", "users", []byte(`{"name":"test"}`)), reg)
	if resp.Failed() {
		t.Fatalf("insert failed: %s", resp.Err)
	}
	if resp.InsertedID == "" {
		t.Error("insert returned no id")
	}

	// findOne
	resp = adapter.Handle(common.NewDocFindRequest(connID, "db", "users", []byte(`{"name":"test"}`)), reg)
	if resp.Failed() || !resp.Ok {
		t.Fatalf("find failed: %+v", resp)
	}
	if string(resp.Value) != `{"name":"test"}` {
		t.Errorf("unexpected document %s", resp.Value)
	}

	// updateOne
	resp = adapter.Handle(common.NewDocUpdateRequest(connID, "db", "users", []byte(`{}`), []byte(`{"$set":{"a":1}}`)), reg)
	if resp.Failed() || resp.Matched != 1 || resp.Modified != 1 {
		t.Errorf("unexpected update response %+v", resp)
	}

	// deleteOne
	resp = adapter.Handle(common.NewDocDeleteRequest(connID, "db", "users", []byte(`{}`)), reg)
	if resp.Failed() || resp.Count != 1 {
		t.Errorf("unexpected delete response %+v", resp)
	}

	// count
	resp = adapter.Handle(common.NewDocCountRequest(connID, "db", "users", nil), reg)
	if resp.Failed() {
		t.Errorf("count failed: %s", resp.Err)
	}
}

func TestAdapterDocManyOperations(t *testing.T) {
	reg, factory := newTestRegistry(t)
	adapter := NewRegistryAdapter()
	connID := mustCreate(t, adapter, reg)
	factory.Last().FindDocs = [][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`)}

	// insertMany
	resp := adapter.Handle(common.NewDocInsertManyRequest(connID, "db", "users",
		[][]byte{[]byte(`{"n":1}`), []byte(`{"n":2}`), []byte(`{"n":3}`)}), reg)
	if resp.Failed() {
		t.Fatalf("insertMany failed: %s", resp.Err)
	}
	if len(resp.InsertedIDs) != 3 {
		t.Errorf("insertMany returned %d ids, want 3", len(resp.InsertedIDs))
	}

	// find
	resp = adapter.Handle(common.NewDocFindManyRequest(connID, "db", "users", nil, 0), reg)
	if resp.Failed() || len(resp.Values) != 2 {
		t.Fatalf("find failed: %+v", resp)
	}
	resp = adapter.Handle(common.NewDocFindManyRequest(connID, "db", "users", nil, 1), reg)
	if resp.Failed() || len(resp.Values) != 1 {
		t.Errorf("find with limit returned %d docs, want 1", len(resp.Values))
	}

	// updateMany
	resp = adapter.Handle(common.NewDocUpdateManyRequest(connID, "db", "users", []byte(`{}`), []byte(`{"$set":{"a":1}}`)), reg)
	if resp.Failed() || resp.Matched != 2 || resp.Modified != 2 {
		t.Errorf("unexpected updateMany response %+v", resp)
	}

	// deleteMany
	resp = adapter.Handle(common.NewDocDeleteManyRequest(connID, "db", "users", []byte(`{}`)), reg)
	if resp.Failed() || resp.Count != 2 {
		t.Errorf("unexpected deleteMany response %+v", resp)
	}
}

func TestAdapterDocOpUnknownConnection(t *testing.T) {
	reg, _ := newTestRegistry(t)
	adapter := NewRegistryAdapter()

	resp := adapter.Handle(common.NewDocFindRequest("no-such-id", "db", "users", nil), reg)
	if !resp.Failed() {
		t.Fatal("expected failure for unknown connection")
	}
	if common.Kind(resp.ErrKind) != common.KindNotFound {
		t.Errorf("expected kind %s, got %s", common.KindNotFound, resp.ErrKind)
	}
}

func TestAdapterStats(t *testing.T) {
	reg, _ := newTestRegistry(t)
	adapter := NewRegistryAdapter()
	connID := mustCreate(t, adapter, reg)

	resp := adapter.Handle(common.NewConnStatsRequest(), reg)
	if resp.Failed() {
		t.Fatalf("stats failed: %s", resp.Err)
	}

	var stats registry.Stats
	if err := json.Unmarshal(resp.Value, &stats); err != nil {
		t.Fatalf("stats snapshot is not valid JSON: %v", err)
	}
	if stats.Count != 1 || stats.Connections[0].ID != connID {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestAdapterUnsupportedMessageType(t *testing.T) {
	reg, _ := newTestRegistry(t)
	adapter := NewRegistryAdapter()

	resp := adapter.Handle(&common.Message{MsgType: "kv.set"}, reg)
	if resp.MsgType != common.MsgTError {
		t.Errorf("expected error response, got %s", resp.MsgType)
	}
	if common.Kind(resp.ErrKind) != common.KindRequestRejected {
		t.Errorf("expected kind %s, got %s", common.KindRequestRejected, resp.ErrKind)
	}
}

func TestAdapterNilRegistry(t *testing.T) {
	adapter := NewRegistryAdapter()
	resp := adapter.Handle(common.NewConnStatsRequest(), nil)
	if !resp.Failed() {
		t.Error("expected failure for nil registry")
	}
}

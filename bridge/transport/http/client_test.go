package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docbridge/bridge/common"
)

func testConfig(endpoint string, attemptTimeoutMs int) common.ClientConfig {
	return common.ClientConfig{
		AttemptTimeoutMs: attemptTimeoutMs,
		Transport: common.ClientTransportConfig{
			Endpoints: []string{endpoint},
		},
	}
}

func TestConnectRequiresEndpoints(t *testing.T) {
	tr := NewHTTPClientTransport()
	if err := tr.Connect(common.ClientConfig{}); err == nil {
		t.Fatal("expected error for empty endpoint list")
	}
}

func TestConnectSetsAttemptTimeout(t *testing.T) {
	tr := NewHTTPClientTransport()
	if err := tr.Connect(testConfig("http://localhost:8080", 250)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	impl := tr.(*httpClientTransport)
	if impl.client.Timeout != 250*time.Millisecond {
		t.Errorf("client timeout %v, want 250ms", impl.client.Timeout)
	}
}

func TestSendStatusClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			body, _ := io.ReadAll(r.Body)
			w.Write(body)
		case "/unavailable":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	tr := NewHTTPClientTransport()
	if err := tr.Connect(testConfig(server.URL, 1000)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	resp, err := tr.Send("echo", []byte("payload"), nil)
	if err != nil || string(resp) != "payload" {
		t.Errorf("echo: %q / %v", resp, err)
	}

	// 5xx is a transport failure, retryable by the caller
	_, err = tr.Send("unavailable", nil, nil)
	if !common.IsKind(err, common.KindTransportError) {
		t.Errorf("expected %s for 503, got %v", common.KindTransportError, err)
	}

	// Everything else outside 2xx is terminal
	_, err = tr.Send("missing", nil, nil)
	if !common.IsKind(err, common.KindRequestRejected) {
		t.Errorf("expected %s for 404, got %v", common.KindRequestRejected, err)
	}
}

func TestSendForwardsHeaders(t *testing.T) {
	var gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRequestID = r.Header.Get("X-Request-Id")
	}))
	defer server.Close()

	tr := NewHTTPClientTransport()
	if err := tr.Connect(testConfig(server.URL, 1000)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Send("op", nil, map[string]string{"X-Request-Id": "task-42"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotRequestID != "task-42" {
		t.Errorf("server saw request id %q, want task-42", gotRequestID)
	}
}

func TestSendAbortsHungServer(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	tr := NewHTTPClientTransport()
	if err := tr.Connect(testConfig(server.URL, 50)); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	start := time.Now()
	_, err := tr.Send("slow", nil, nil)
	if !common.IsKind(err, common.KindTransportError) {
		t.Fatalf("expected %s for hung server, got %v", common.KindTransportError, err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Send took %v, attempt timeout did not fire", elapsed)
	}
}

package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"docbridge/bridge/common"
	"docbridge/bridge/transport"
)

// NewHTTPClientTransport creates the HTTP client transport
func NewHTTPClientTransport() transport.IClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    uint32
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}

	// Parse each server URL
	parsedURLs := make([]*url.URL, len(config.Transport.Endpoints))
	for i, server := range config.Transport.Endpoints {
		parsedURL, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("invalid endpoint %q: %v", server, err)
		}
		parsedURLs[i] = parsedURL
	}

	// Idle connection reuse is the whole point: establishing a new
	// transport per request is the failure mode this pool avoids
	idlePerHost := config.Transport.ConnectionsPerEndpoint
	if idlePerHost < 1 {
		idlePerHost = 10
	}

	t.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        idlePerHost * len(parsedURLs) * 2,
			MaxIdleConnsPerHost: idlePerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	// Bound the whole request so a hung server cannot pin a socket and
	// a goroutine beyond the per-attempt budget
	if config.AttemptTimeoutMs > 0 {
		t.client.Timeout = time.Duration(config.AttemptTimeoutMs) * time.Millisecond
	}
	t.serverURLs = parsedURLs
	t.counter = 0

	return nil
}

func (t *httpClientTransport) Send(route string, req []byte, headers map[string]string) ([]byte, error) {
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	// Select the next server via round-robin
	idx := atomic.AddUint32(&t.counter, 1) % uint32(len(t.serverURLs))
	requestURL := fmt.Sprintf("%s/%s", t.serverURLs[idx].String(), route)

	httpRequest, err := http.NewRequest(http.MethodPost, requestURL, bytes.NewReader(req))
	if err != nil {
		return nil, common.WrapError(common.KindRequestRejected, err, "failed to build request")
	}
	httpRequest.Header.Set("Content-Type", "application/octet-stream")
	for k, v := range headers {
		httpRequest.Header.Set(k, v)
	}

	httpResponse, err := t.client.Do(httpRequest)
	if err != nil {
		return nil, common.WrapError(common.KindTransportError, err, "request failed")
	}
	defer httpResponse.Body.Close()

	// 5xx counts as a transport failure (retryable), everything else
	// outside 2xx is a client error and terminal
	if httpResponse.StatusCode >= 500 {
		return nil, common.NewError(common.KindTransportError, "server error: %s", httpResponse.Status)
	}
	if httpResponse.StatusCode != http.StatusOK {
		return nil, common.NewError(common.KindRequestRejected, "request rejected: %s", httpResponse.Status)
	}

	return io.ReadAll(httpResponse.Body)
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}

	t.client = nil
	t.serverURLs = nil

	return nil
}

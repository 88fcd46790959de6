package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Shared transport configuration structs
// --------------------------------------------------------------------------

// SocketConf holds buffer settings for socket based transports
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific tuning knobs (ignored by other transports)
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Registry configuration struct
// --------------------------------------------------------------------------

// RegistryConfig holds the limits and timeouts for the connection registry.
// All timeouts are independent: connection establishment, health pings and
// request attempts are each bounded on their own.
type RegistryConfig struct {
	// MaxConnections is the maximum number of connections the registry
	// tracks at the same time. Create fails once the limit is reached.
	MaxConnections int

	// ConnectTimeoutMs bounds the establishment of a new driver handle
	ConnectTimeoutMs int

	// PingTimeoutMs bounds a health ping round trip
	PingTimeoutMs int

	// OperationTimeoutMs bounds a single document operation executed
	// through a registry connection
	OperationTimeoutMs int
}

// DefaultRegistryConfig returns the registry defaults used by the serve command
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		MaxConnections:     64,
		ConnectTimeoutMs:   10000,
		PingTimeoutMs:      2000,
		OperationTimeoutMs: 30000,
	}
}

// --------------------------------------------------------------------------
// Bridge server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters for the bridge server
type ServerConfig struct {
	// Endpoint is the address the transport listens on
	Endpoint string

	// TimeoutSecond bounds reads and writes on the server transport
	TimeoutSecond int64

	// Registry parameters
	Registry RegistryConfig

	// Socket settings for the framed transports
	Socket SocketConf
	TCP    TCPConf

	// Logging configuration
	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Bridge Server")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Connection Registry")
	addField("Max Connections", strconv.Itoa(c.Registry.MaxConnections))
	addField("Connect Timeout", fmt.Sprintf("%d ms", c.Registry.ConnectTimeoutMs))
	addField("Ping Timeout", fmt.Sprintf("%d ms", c.Registry.PingTimeoutMs))
	addField("Operation Timeout", fmt.Sprintf("%d ms", c.Registry.OperationTimeoutMs))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}

// --------------------------------------------------------------------------
// Bridge client configuration struct
// --------------------------------------------------------------------------

// ClientTransportConfig holds the transport related client settings
type ClientTransportConfig struct {
	// Endpoints lists the bridge servers, requests are balanced round-robin
	Endpoints []string

	// ConnectionsPerEndpoint sets how many transport handles are pooled
	// per endpoint (for transports that support this feature)
	ConnectionsPerEndpoint int

	// Socket settings for the framed transports
	SocketConf SocketConf
	TCPConf    TCPConf
}

// ClientConfig holds all configuration parameters for the bridge client
type ClientConfig struct {
	// AttemptTimeoutMs bounds a single execution attempt of a task
	AttemptTimeoutMs int

	// MaxRetries is the number of additional attempts after the first
	// one for retryable failures. 0 disables retries.
	MaxRetries int

	// BackoffBaseMs and BackoffMaxMs shape the delay between attempts:
	// the delay doubles per attempt starting at the base, never exceeds
	// the cap and never decreases.
	BackoffBaseMs int
	BackoffMaxMs  int

	// Workers is the number of worker goroutines executing tasks
	Workers int

	// Transport settings
	Transport ClientTransportConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Attempt Timeout", fmt.Sprintf("%d ms", c.AttemptTimeoutMs))
	addField("Max Retries", strconv.Itoa(c.MaxRetries))
	addField("Backoff", fmt.Sprintf("%d ms base, %d ms cap", c.BackoffBaseMs, c.BackoffMaxMs))
	addField("Workers", strconv.Itoa(c.Workers))
	addField("Connections Per Endpoint", strconv.Itoa(c.Transport.ConnectionsPerEndpoint))

	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}

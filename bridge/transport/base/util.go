package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

const maxRouteLen = 255

// writeFrame writes a frame to the connection with the format:
// - 8 bytes: requestID (uint64, big endian)
// - 1 byte:  route length (uint8)
// - 4 bytes: data length (uint32, big endian)
// - N bytes: route
// - M bytes: data payload
func writeFrame(conn net.Conn, requestID uint64, route string, data []byte) error {
	if len(route) > maxRouteLen {
		return fmt.Errorf("route too long: %d bytes", len(route))
	}

	// Create the header (8 bytes requestID + 1 byte route length + 4 bytes content length)
	header := make([]byte, 13)
	binary.BigEndian.PutUint64(header[:8], requestID)
	header[8] = uint8(len(route))
	binary.BigEndian.PutUint32(header[9:13], uint32(len(data)))

	b := net.Buffers{header, []byte(route), data}
	_, err := b.WriteTo(conn)
	return err
}

// readFrame reads a frame from the connection using the provided buffer
// If the buffer is too small, it will allocate a new temporary buffer for the data
func readFrame(conn net.Conn, buf []byte) (uint64, string, []byte, error) {
	// Check if buffer is large enough for header
	if buf == nil || len(buf) < 13 {
		buf = make([]byte, 13) // create header buffer
	}

	// Read header
	if _, err := io.ReadFull(conn, buf[:13]); err != nil {
		return 0, "", nil, err
	}

	// Parse header
	requestID := binary.BigEndian.Uint64(buf[:8])
	routeLength := int(buf[8])
	contentLength := binary.BigEndian.Uint32(buf[9:13])

	// Read route
	var route string
	if routeLength > 0 {
		routeBuf := make([]byte, routeLength)
		if _, err := io.ReadFull(conn, routeBuf); err != nil {
			return 0, "", nil, err
		}
		route = string(routeBuf)
	}

	// If no data, return empty slice
	if contentLength == 0 {
		return requestID, route, []byte{}, nil
	}

	// Check if buffer is large enough for data
	if len(buf) < int(contentLength) {
		buf = make([]byte, contentLength)
	}

	// Read data
	if _, err := io.ReadFull(conn, buf[:contentLength]); err != nil {
		return 0, "", nil, err
	}

	// Return data
	return requestID, route, buf[:contentLength], nil
}

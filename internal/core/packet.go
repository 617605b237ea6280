// Package core defines core data structures with zero external dependencies.
package core

import "time"

// RawPacket is a captured frame, zero-copy reference to the capture buffer.
type RawPacket struct {
	Data       []byte    // Raw frame data, zero-copy slice
	Timestamp  time.Time // Capture timestamp
	CaptureLen uint32    // Actual captured length
	OrigLen    uint32    // Original frame length
}

// DecodedPacket is the result of L2 decoding.
type DecodedPacket struct {
	Timestamp  time.Time
	Ethernet   EthernetHeader
	Payload    []byte // Content after the innermost ether type, zero-copy slice
	CaptureLen uint32
	OrigLen    uint32
}

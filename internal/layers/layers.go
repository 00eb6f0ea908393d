// Package layers dissects raw link-layer frames into a small capability-based
// view model: every Layer-3 view exposes Layer3Ops, every Layer-4 view
// exposes Layer4Ops, regardless of whether the underlying protocol is IPv4,
// IPv6, TCP or UDP. The actual byte parsing is delegated to
// github.com/google/gopacket/layers, calling each layer type's own
// DecodeFromBytes into a fresh view per frame; this package adapts gopacket's decoded layers into the tagged-union
// shape the replay engine expects instead of re-deriving header parsing
// from scratch.
package layers

import (
	"fmt"

	"github.com/negbie/logp"
)

// Protocol tags a concrete layer implementation.
type Protocol int

const (
	ProtoEthernet Protocol = iota
	ProtoIPv4
	ProtoIPv6
	ProtoTCP
	ProtoUDP
)

func (p Protocol) String() string {
	switch p {
	case ProtoEthernet:
		return "ETHERNET"
	case ProtoIPv4:
		return "IPV4"
	case ProtoIPv6:
		return "IPV6"
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	default:
		return "UNKNOWN"
	}
}

// Number identifies the OSI layer a view occupies within a TransportPacket.
type Number int

const (
	Physical Number = iota + 1
	DataLink
	Network
	Transport
	Session
	Presentation
	Application
)

// Layer is the minimal capability every dissected view provides.
type Layer interface {
	Protocol() Protocol
	LayerNumber() Number
	// Payload returns the sub-slice of the original frame buffer that
	// belongs to this layer's payload; it is a view, never a copy.
	Payload() []byte
}

// ErrTruncated is returned by Dissect when the frame header reports a
// capture length that does not match the actual number of bytes captured.
// Per the error handling design this is fatal, not a silent drop.
type ErrTruncated struct {
	Caplen, Len int
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("packet not fully captured: caplen=%d len=%d", e.Caplen, e.Len)
}

// ErrMalformed marks a short or otherwise invalid header; the frame is
// dropped silently by the pipeline, never surfaced as fatal.
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string { return "malformed packet: " + e.Reason }

func logDrop(tag, reason string) {
	logp.Debug("layer", "dropping frame: %s: %s", tag, reason)
}

package layers

import (
	"github.com/google/gopacket"
	galayers "github.com/google/gopacket/layers"
)

// EthernetView is a zero-copy view over an Ethernet II frame. Decoding is
// delegated to gopacket's Ethernet decoder.
type EthernetView struct {
	eth galayers.Ethernet
}

// NewEthernet decodes the Ethernet header at the front of frame.
func NewEthernet(frame []byte) (*EthernetView, error) {
	var v EthernetView
	if err := v.eth.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *EthernetView) Protocol() Protocol   { return ProtoEthernet }
func (v *EthernetView) LayerNumber() Number  { return DataLink }
func (v *EthernetView) Payload() []byte      { return v.eth.LayerPayload() }
func (v *EthernetView) EtherType() uint16    { return uint16(v.eth.EthernetType) }

// IsIPv4 reports whether the next layer is IPv4.
func (v *EthernetView) IsIPv4() bool { return v.eth.EthernetType == galayers.EthernetTypeIPv4 }

// IsIPv6 reports whether the next layer is IPv6.
func (v *EthernetView) IsIPv6() bool { return v.eth.EthernetType == galayers.EthernetTypeIPv6 }

// NullView is a zero-copy view over a DLT_NULL / DLT_LOOP BSD loopback
// header: a 4 byte address-family value in either byte order, as gopacket's
// Loopback layer already tolerates.
type NullView struct {
	lo galayers.Loopback
}

// NewNull decodes a BSD loopback pseudo-header.
func NewNull(frame []byte) (*NullView, error) {
	var v NullView
	if err := v.lo.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *NullView) Protocol() Protocol  { return ProtoEthernet }
func (v *NullView) LayerNumber() Number { return DataLink }
func (v *NullView) Payload() []byte     { return v.lo.LayerPayload() }

// IsIPv4 reports whether the recorded address family is AF_INET.
func (v *NullView) IsIPv4() bool { return v.lo.Family == galayers.ProtocolFamilyIPv4 }

// IsIPv6 reports whether the recorded address family is AF_INET6.
func (v *NullView) IsIPv6() bool {
	return v.lo.Family == galayers.ProtocolFamilyIPv6 || v.lo.Family == galayers.ProtocolFamilyIPv6BSD
}

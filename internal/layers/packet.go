package layers

import (
	galayers "github.com/google/gopacket/layers"
)

// LinkType names the link-layer framing of a capture. Only DLT_NULL/
// DLT_LOOP and DLT_EN10MB are supported; everything else is dropped.
type LinkType int

const (
	LinkTypeNull     LinkType = iota // DLT_NULL / DLT_LOOP
	LinkTypeEthernet                 // DLT_EN10MB
	LinkTypeUnknown
)

// TransportPacket bundles the per-layer views dissected from one frame,
// indexed by OSI layer number as a sparse vector over layer numbers 1-7.
// Only layers 2-4 are ever populated by Dissect.
type TransportPacket struct {
	slots [Application]Layer // layer n lives at index n-1; Number is 1-based
}

func (p *TransportPacket) set(n Number, l Layer) { p.slots[n-1] = l }

// Get returns the view occupying layer n, or nil if unpopulated.
func (p *TransportPacket) Get(n Number) Layer { return p.slots[n-1] }

// IsLayer reports whether layer n holds a view tagged with proto.
func (p *TransportPacket) IsLayer(n Number, proto Protocol) bool {
	l := p.Get(n)
	return l != nil && l.Protocol() == proto
}

// Layer3 returns the network-layer view's Layer3Ops capability, or nil if
// layer 3 is unpopulated or not an IP layer.
func (p *TransportPacket) Layer3() Layer3Ops {
	l, _ := p.Get(Network).(Layer3Ops)
	return l
}

// Layer4 returns the transport-layer view's Layer4Ops capability, or nil.
func (p *TransportPacket) Layer4() Layer4Ops {
	l, _ := p.Get(Transport).(Layer4Ops)
	return l
}

// TCP returns the TCP view and true if layer 4 is TCP.
func (p *TransportPacket) TCP() (*TCPView, bool) {
	v, ok := p.Get(Transport).(*TCPView)
	return v, ok
}

// UDP returns the UDP view and true if layer 4 is UDP.
func (p *TransportPacket) UDP() (*UDPView, bool) {
	v, ok := p.Get(Transport).(*UDPView)
	return v, ok
}

// Dissect builds a TransportPacket from one captured frame, following the
// frame -> packet pipeline in order: link layer, network layer, transport
// layer. Truncated frames (caplen != length) are a fatal ErrTruncated.
// Unknown link types, non-IP network layers, and non-TCP/UDP transport
// layers all cause a silent drop: Dissect returns (nil, nil).
func Dissect(link LinkType, caplen, length int, data []byte) (*TransportPacket, error) {
	if caplen != length {
		return nil, ErrTruncated{Caplen: caplen, Len: length}
	}

	var l3payload []byte
	var isIPv4, isIPv6 bool

	switch link {
	case LinkTypeEthernet:
		eth, err := NewEthernet(data)
		if err != nil {
			logDrop("ethernet", err.Error())
			return nil, nil
		}
		l3payload = eth.Payload()
		isIPv4, isIPv6 = eth.IsIPv4(), eth.IsIPv6()
	case LinkTypeNull:
		null, err := NewNull(data)
		if err != nil {
			logDrop("null", err.Error())
			return nil, nil
		}
		l3payload = null.Payload()
		isIPv4, isIPv6 = null.IsIPv4(), null.IsIPv6()
	default:
		logDrop("link", "unsupported link type")
		return nil, nil
	}

	pkt := &TransportPacket{}

	var l4payload []byte
	var nextProto uint8

	switch {
	case isIPv4:
		v, err := NewIPv4(l3payload)
		if err != nil {
			logDrop("ipv4", err.Error())
			return nil, nil
		}
		pkt.set(Network, v)
		l4payload, nextProto = v.Payload(), v.NextProtocol()
	case isIPv6:
		v, err := NewIPv6(l3payload)
		if err != nil {
			logDrop("ipv6", err.Error())
			return nil, nil
		}
		pkt.set(Network, v)
		l4payload, nextProto = v.Payload(), v.NextProtocol()
	default:
		logDrop("network", "non-IP frame")
		return nil, nil
	}

	switch nextProto {
	case uint8(galayers.IPProtocolTCP):
		v, err := NewTCP(l4payload)
		if err != nil {
			logDrop("tcp", err.Error())
			return nil, nil
		}
		pkt.set(Transport, v)
	case uint8(galayers.IPProtocolUDP):
		v, err := NewUDP(l4payload)
		if err != nil {
			logDrop("udp", err.Error())
			return nil, nil
		}
		pkt.set(Transport, v)
	default:
		logDrop("transport", "unsupported next protocol")
		return nil, nil
	}

	return pkt, nil
}

package conversation

import (
	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
)

// UdpConversation is a stateless direction classifier: each datagram from
// the remembered capture-side source tuple is a SEND, everything else is
// a RECV. UDP conversations never emit CONNECT or CLOSE actions.
type UdpConversation struct {
	addressing
}

// NewUdpConversation creates a UDP conversation from the first observed
// datagram for a flow, optionally redirected by a target-server rule.
func NewUdpConversation(pkt *netlayers.TransportPacket, ruleAddr string, rulePort uint16, hasRule bool) (*UdpConversation, error) {
	a, err := newAddressing(pkt, ruleAddr, rulePort, hasRule)
	if err != nil {
		return nil, err
	}
	return &UdpConversation{addressing: a}, nil
}

func (c *UdpConversation) Protocol() string { return "UDP" }

// Ingest classifies one captured UDP datagram into a SEND or RECV action.
func (c *UdpConversation) Ingest(pkt *netlayers.TransportPacket) error {
	udp, ok := pkt.UDP()
	if !ok {
		return nil
	}
	l3 := pkt.Layer3()

	if c.matchesCapSrc(l3.SrcAddr()) && udp.SrcPort() == c.capSrcPort {
		c.actions.Push(NewAction(SEND, udp.Payload()))
	} else {
		c.actions.Push(NewAction(RECV, udp.Payload()))
	}
	return nil
}

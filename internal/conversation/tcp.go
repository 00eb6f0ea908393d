package conversation

import (
	"io"

	"github.com/negbie/logp"

	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
)

// TcpState is the per-flow TCP handshake/close state tracked while
// ingesting a capture. It has nothing to do with the live replay
// connection's own state; it only drives how captured segments are
// translated into actions.
type TcpState int

const (
	Closed TcpState = iota
	SynSent
	SynReceived
	Established
)

func (s TcpState) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case SynSent:
		return "SYN_SENT"
	case SynReceived:
		return "SYN_RECEIVED"
	case Established:
		return "ESTABLISHED"
	default:
		return "UNKNOWN"
	}
}

// TcpConversation reconstructs a TCP conversation's action log from its
// captured segments, following the state machine in the design: CLOSED ->
// SYN_SENT -> SYN_RECEIVED -> ESTABLISHED -> CLOSED, with RST
// unconditionally forcing CLOSED from any state.
type TcpConversation struct {
	addressing

	state TcpState

	// replaySocket is owned by the replay engine, not ingest; it is
	// tracked here only so that an RST observed mid-capture can close a
	// lingering live socket. The replay package sets this via
	// SetReplaySocket / ClearReplaySocket.
	replaySocket io.Closer
}

// NewTcpConversation creates a conversation from the first packet
// observed for a flow, optionally redirected by a target-server rule.
func NewTcpConversation(pkt *netlayers.TransportPacket, ruleAddr string, rulePort uint16, hasRule bool) (*TcpConversation, error) {
	a, err := newAddressing(pkt, ruleAddr, rulePort, hasRule)
	if err != nil {
		return nil, err
	}
	return &TcpConversation{addressing: a, state: Closed}, nil
}

func (c *TcpConversation) Protocol() string { return "TCP" }

// SetReplaySocket records the live replay socket so a captured RST can
// tear it down; ClearReplaySocket clears it once the replay engine closes
// it itself.
func (c *TcpConversation) SetReplaySocket(s io.Closer) { c.replaySocket = s }
func (c *TcpConversation) ClearReplaySocket()           { c.replaySocket = nil }
func (c *TcpConversation) ReplaySocket() io.Closer      { return c.replaySocket }
func (c *TcpConversation) State() TcpState              { return c.state }

func (c *TcpConversation) closeLingeringSocket() {
	if c.replaySocket != nil {
		_ = c.replaySocket.Close()
		c.replaySocket = nil
	}
}

// Ingest folds one captured TCP segment into the action log.
func (c *TcpConversation) Ingest(pkt *netlayers.TransportPacket) error {
	tcp, ok := pkt.TCP()
	if !ok {
		return nil
	}
	l3 := pkt.Layer3()

	if tcp.HasRST() {
		c.closeLingeringSocket()
		c.state = Closed
		return nil
	}

	switch c.state {
	case Closed:
		c.ingestClosed(l3, tcp)
	case SynSent:
		c.ingestSynSent(l3, tcp)
	case SynReceived:
		c.ingestSynReceived(l3, tcp)
	case Established:
		c.ingestEstablished(l3, tcp)
	}

	return nil
}

func (c *TcpConversation) ingestClosed(l3 netlayers.Layer3Ops, tcp *netlayers.TCPView) {
	if c.matchesCapSrc(l3.SrcAddr()) && tcp.IsSYNOnly() {
		c.closeLingeringSocket()
		c.state = SynSent
		return
	}

	if len(tcp.Payload()) > 0 {
		logp.Debug("tcp", "unexpected payload while CLOSED, ignoring")
		return
	}

	// Assume this is the tail of a close handshake that started before
	// capture began; drop silently per the documented open question.
}

func (c *TcpConversation) ingestSynSent(l3 netlayers.Layer3Ops, tcp *netlayers.TCPView) {
	if c.matchesCapDest(l3.SrcAddr()) && tcp.HasSYN() && tcp.HasACK() {
		c.state = SynReceived
		return
	}
	logp.Debug("tcp", "unexpected packet in SYN_SENT, ignoring")
}

func (c *TcpConversation) ingestSynReceived(l3 netlayers.Layer3Ops, tcp *netlayers.TCPView) {
	if c.matchesCapSrc(l3.SrcAddr()) && tcp.HasACK() {
		c.state = Established
		c.actions.Push(&Action{Type: CONNECT})
		return
	}
	logp.Debug("tcp", "unexpected packet in SYN_RECEIVED, ignoring")
}

func (c *TcpConversation) ingestEstablished(l3 netlayers.Layer3Ops, tcp *netlayers.TCPView) {
	payload := tcp.Payload()

	if len(payload) > 0 {
		if c.matchesCapSrc(l3.SrcAddr()) && tcp.SrcPort() == c.capSrcPort {
			c.actions.Push(NewAction(SEND, payload))
		} else {
			c.actions.Push(NewAction(RECV, payload))
		}
	}

	if tcp.HasFIN() {
		c.state = Closed
		c.actions.Push(&Action{Type: CLOSE})
	}
}

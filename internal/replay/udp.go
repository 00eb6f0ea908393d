package replay

import (
	"fmt"

	"github.com/negbie/logp"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
	"github.com/pcapreplay/pcapreplay/internal/validator"
)

// recvSlack is added to the captured payload size when sizing the scratch
// buffer for a UDP RECV, in case the live server's reply is longer than
// what was captured.
const recvSlack = 512

// UDPEngine drives a single UdpConversation's action queue against a live
// server, mirroring UdpReplayClient::replay: one sendto per SEND, one
// recvfrom per RECV, judged by an injected PacketValidator instead of the
// TCP engine's HTTP-aware comparator.
type UDPEngine struct {
	conv       *conversation.UdpConversation
	v          validator.Validator
	ctx        validator.Context
	onMismatch func()
	onAction   func()
}

// NewUDPEngine returns an engine bound to conv, judging RECV actions with
// v. A nil v defaults to validator.DefaultValidator{}.
func NewUDPEngine(conv *conversation.UdpConversation, v validator.Validator) *UDPEngine {
	if v == nil {
		v = validator.DefaultValidator{}
	}
	return &UDPEngine{conv: conv, v: v, ctx: validator.Context{}}
}

// OnMismatch registers a callback invoked once per failed validation, in
// addition to the logp.Warn already emitted.
func (e *UDPEngine) OnMismatch(fn func()) { e.onMismatch = fn }

// OnActionReplayed registers a callback invoked once per action
// successfully drained from the queue; a replay driver wires this to
// conversation.Store.RecordReplayed for its run-wide replayed-action count.
func (e *UDPEngine) OnActionReplayed(fn func()) { e.onAction = fn }

// Replay drains conv's action queue in FIFO order over one datagram
// socket held open for the whole conversation.
func (e *UDPEngine) Replay() error {
	sock, err := newDatagramSocket(e.conv.AddressFamily())
	if err != nil {
		return err
	}
	defer sock.Close()

	actions := e.conv.Actions()
	for {
		action, ok := actions.Front()
		if !ok {
			break
		}

		switch action.Type {
		case conversation.SEND:
			if err := sock.SendTo(action.Payload, e.conv.TestSockAddr()); err != nil {
				return err
			}

		case conversation.RECV:
			buf := make([]byte, len(action.Payload)+recvSlack)
			n, err := sock.RecvFrom(buf)
			if err != nil {
				return err
			}
			ok, err := e.v.Validate(action.Payload, buf[:n], action.SubTokens, e.ctx)
			if err != nil {
				return err
			}
			if !ok {
				logp.Warn("udp replay: detected difference in server response")
				if e.onMismatch != nil {
					e.onMismatch()
				}
			}

		default:
			return fmt.Errorf("unsupported action %s for UDP replay", action.Type)
		}

		actions.Pop()
		if e.onAction != nil {
			e.onAction()
		}
	}

	return nil
}

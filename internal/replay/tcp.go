package replay

import (
	"fmt"

	"github.com/negbie/logp"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
	"github.com/pcapreplay/pcapreplay/internal/httpcompare"
)

// recvScratchSize is the read buffer size used while draining a RECV
// action.
const recvScratchSize = 8192

// TCPEngine drives a single TcpConversation's action queue against a live
// server, the way HttpReplayClient::replay consumes one TcpConversation.
type TCPEngine struct {
	conv       *conversation.TcpConversation
	onMismatch func()
	onAction   func()
}

// NewTCPEngine returns an engine bound to conv.
func NewTCPEngine(conv *conversation.TcpConversation) *TCPEngine {
	return &TCPEngine{conv: conv}
}

// OnMismatch registers a callback invoked once per detected HTTP response
// mismatch, in addition to the logp.Warn already emitted; a run-wide
// report.Summary wires its IncMismatch method in here.
func (e *TCPEngine) OnMismatch(fn func()) { e.onMismatch = fn }

// OnActionReplayed registers a callback invoked once per action
// successfully drained from the queue; a replay driver wires this to
// conversation.Store.RecordReplayed for its run-wide replayed-action count.
func (e *TCPEngine) OnActionReplayed(fn func()) { e.onAction = fn }

// Replay drains conv's action queue in FIFO order, failing fast on any
// socket error. A mismatch between expected and actual HTTP responses is
// logged, not fatal.
func (e *TCPEngine) Replay() error {
	var sock *rawSocket
	expected := httpcompare.NewResponseState()
	actual := httpcompare.NewResponseState()
	defer expected.Release()
	defer actual.Release()

	resetResponseStates := func() {
		expected.Release()
		actual.Release()
		expected = httpcompare.NewResponseState()
		actual = httpcompare.NewResponseState()
	}

	actions := e.conv.Actions()
	for {
		action, ok := actions.Front()
		if !ok {
			break
		}

		switch action.Type {
		case conversation.CONNECT:
			s, err := newStreamSocket(e.conv.AddressFamily())
			if err != nil {
				return err
			}
			if err := s.Connect(e.conv.TestSockAddr()); err != nil {
				_ = s.Close()
				return err
			}
			sock = s
			e.conv.SetReplaySocket(sock)

		case conversation.SEND:
			if sock == nil {
				return fmt.Errorf("SEND action before CONNECT")
			}
			if err := sock.Write(action.Payload); err != nil {
				return err
			}
			// The capture assumes each response arrives before the next
			// request starts; not an HTTP requirement, but true in practice.
			resetResponseStates()

		case conversation.RECV:
			if sock == nil {
				return fmt.Errorf("RECV action before CONNECT")
			}
			if !expected.Complete() {
				if _, err := expected.Process(action.Payload); err != nil {
					return err
				}
			}

			buf := make([]byte, recvScratchSize)
			for !actual.Complete() {
				n, err := sock.Read(buf)
				if err != nil {
					return err
				}
				if _, err := actual.Process(buf[:n]); err != nil {
					return err
				}
			}

			if expected.Complete() {
				diff, err := expected.Compare(actual)
				if err != nil {
					return err
				}
				if diff != 0 {
					logp.Warn("tcp replay: detected difference in server response")
					if e.onMismatch != nil {
						e.onMismatch()
					}
				}
			}

		case conversation.CLOSE:
			if sock != nil {
				_ = sock.Close()
				e.conv.ClearReplaySocket()
				sock = nil
			}
		}

		actions.Pop()
		if e.onAction != nil {
			e.onAction()
		}
	}

	return nil
}

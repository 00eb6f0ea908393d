// Package report summarizes one replay run: how many frames were dropped,
// how many conversations were created, and how many HTTP/UDP mismatches
// were observed.
package report

import (
	"sync/atomic"

	json "github.com/segmentio/encoding/json"
)

// Summary accumulates run-wide counters. All fields are updated with
// atomic operations, so callers on different goroutines can record
// concurrently without a shared lock; cmd/pcapreplay itself ingests and
// replays on one goroutine.
type Summary struct {
	TruncatedFrames  uint64 `json:"truncated_frames"`
	DroppedFrames    uint64 `json:"dropped_frames"`
	TCPConversations uint64 `json:"tcp_conversations"`
	UDPConversations uint64 `json:"udp_conversations"`
	ActionsReplayed  uint64 `json:"actions_replayed"`
	Mismatches       uint64 `json:"mismatches"`
	ReplayErrors     uint64 `json:"replay_errors"`
}

// IncTruncatedFrames records one fatal truncated-capture frame.
func (s *Summary) IncTruncatedFrames() { atomic.AddUint64(&s.TruncatedFrames, 1) }

// IncDroppedFrames records one silently dropped frame (unknown link type,
// non-IP network layer, unsupported transport protocol, a malformed
// header, or a packet that no conversation accepts).
func (s *Summary) IncDroppedFrames() { atomic.AddUint64(&s.DroppedFrames, 1) }

// IncConversation records one newly created conversation of the given
// protocol ("TCP" or "UDP").
func (s *Summary) IncConversation(protocol string) {
	if protocol == "TCP" {
		atomic.AddUint64(&s.TCPConversations, 1)
	} else {
		atomic.AddUint64(&s.UDPConversations, 1)
	}
}

// IncActionsReplayed records one successfully drained action.
func (s *Summary) IncActionsReplayed() { atomic.AddUint64(&s.ActionsReplayed, 1) }

// IncMismatch records one detected response mismatch or failed validator
// comparison; a warning, never fatal to the run.
func (s *Summary) IncMismatch() { atomic.AddUint64(&s.Mismatches, 1) }

// IncReplayError records one conversation whose replay aborted with a
// fatal I/O error; this aborts only that conversation, not the run.
func (s *Summary) IncReplayError() { atomic.AddUint64(&s.ReplayErrors, 1) }

// MarshalJSON renders a point-in-time snapshot of the summary, reading
// every counter atomically rather than relying on the struct tags'
// default reflection-based encoding to see a torn read under concurrent
// updates.
func (s *Summary) MarshalJSON() ([]byte, error) {
	snapshot := struct {
		TruncatedFrames  uint64 `json:"truncated_frames"`
		DroppedFrames    uint64 `json:"dropped_frames"`
		TCPConversations uint64 `json:"tcp_conversations"`
		UDPConversations uint64 `json:"udp_conversations"`
		ActionsReplayed  uint64 `json:"actions_replayed"`
		Mismatches       uint64 `json:"mismatches"`
		ReplayErrors     uint64 `json:"replay_errors"`
	}{
		TruncatedFrames:  atomic.LoadUint64(&s.TruncatedFrames),
		DroppedFrames:    atomic.LoadUint64(&s.DroppedFrames),
		TCPConversations: atomic.LoadUint64(&s.TCPConversations),
		UDPConversations: atomic.LoadUint64(&s.UDPConversations),
		ActionsReplayed:  atomic.LoadUint64(&s.ActionsReplayed),
		Mismatches:       atomic.LoadUint64(&s.Mismatches),
		ReplayErrors:     atomic.LoadUint64(&s.ReplayErrors),
	}
	return json.Marshal(snapshot)
}

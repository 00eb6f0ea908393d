package conversation

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash"

	"github.com/pcapreplay/pcapreplay/internal/flow"
	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
)

// replayStatShards is the stripe count for the replayed-action counter.
// Replay is driven sequentially today, but each conversation's engine is
// already an independent object addressed by its own FlowKey; striping
// the counter by that key's hash means a future concurrent replay driver
// can record from several conversations at once without every one of them
// contending on a single cache line.
const replayStatShards = 16

// Store demultiplexes dissected packets into Conversation instances keyed by
// FlowKey, creating a new conversation only when a target-server rule
// matches the flow's capture-side source, or when no rules are configured
// and no conversation exists yet (so without rules only the first flow
// seen is stored; every later flow is dropped). It mirrors TypedConversationStore's
// get-or-create logic for both TCP and UDP in one store, since FlowKey
// already disambiguates protocol via the packet that produced it.
type Store struct {
	rules *flow.Registry

	mu            sync.Mutex
	conversations map[string]Conversation
	order         []string
	ingestedCount uint64

	replayedCount [replayStatShards]uint64
}

// NewStore creates an empty store consulting rules for target-server
// redirection decisions.
func NewStore(rules *flow.Registry) *Store {
	return &Store{
		rules:         rules,
		conversations: make(map[string]Conversation),
	}
}

// Ingest folds one dissected packet into its conversation, creating the
// conversation on first sight if a rule matches or no rules/conversations
// exist yet. It returns (nil, nil) when the packet does not belong to any
// conversation and should be silently dropped.
func (s *Store) Ingest(pkt *netlayers.TransportPacket) (Conversation, error) {
	isTCP := pkt.IsLayer(netlayers.Transport, netlayers.ProtoTCP)
	isUDP := pkt.IsLayer(netlayers.Transport, netlayers.ProtoUDP)
	if !isTCP && !isUDP {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := flow.Key(pkt)
	s.ingestedCount++

	if conv, ok := s.conversations[key]; ok {
		if err := conv.Ingest(pkt); err != nil {
			return nil, err
		}
		return conv, nil
	}

	l3 := pkt.Layer3()
	l4 := pkt.Layer4()

	rule, matched := s.rules.Lookup(l3.SrcAddrStr(), l4.SrcPort())
	if !matched && !(s.rules.Empty() && len(s.conversations) == 0) {
		return nil, nil
	}

	var (
		conv Conversation
		err  error
	)
	if matched && rule != nil {
		if isTCP {
			conv, err = NewTcpConversation(pkt, rule.Addr, rule.Port, true)
		} else {
			conv, err = NewUdpConversation(pkt, rule.Addr, rule.Port, true)
		}
	} else {
		if isTCP {
			conv, err = NewTcpConversation(pkt, "", 0, false)
		} else {
			conv, err = NewUdpConversation(pkt, "", 0, false)
		}
	}
	if err != nil {
		return nil, err
	}

	if err := conv.Ingest(pkt); err != nil {
		return nil, err
	}

	s.conversations[key] = conv
	s.order = append(s.order, key)
	return conv, nil
}

// Conversations returns every stored conversation in creation order, the
// order replay must preserve so that redirected flows connect in the same
// sequence they were captured.
func (s *Store) Conversations() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.conversations[key])
	}
	return out
}

// Entry pairs a stored conversation with the FlowKey it was created under,
// so a replay driver can feed that key back into RecordReplayed.
type Entry struct {
	Key  string
	Conv Conversation
}

// Entries returns every stored conversation together with its FlowKey, in
// the same creation order Conversations returns.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, Entry{Key: key, Conv: s.conversations[key]})
	}
	return out
}

// Len reports the number of distinct conversations stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

// IngestedCount returns the total number of TCP and UDP packets passed to
// Ingest, including those dropped because no conversation accepts them.
// Ingest is single-threaded,
// so a plain counter under the store mutex is sufficient.
func (s *Store) IngestedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ingestedCount
}

// RecordReplayed increments the replayed-action counter for the
// conversation identified by key, called once per action a replay engine
// successfully drains (see replay.TCPEngine.OnActionReplayed /
// replay.UDPEngine.OnActionReplayed). Safe to call concurrently from many
// replay goroutines: the shard is picked by hashing key so that unrelated
// conversations' replay workers don't contend on the same counter.
func (s *Store) RecordReplayed(key string) {
	shard := xxhash.Sum64String(key) % replayStatShards
	atomic.AddUint64(&s.replayedCount[shard], 1)
}

// ReplayedCount returns the total number of actions replayed across all
// conversations, the authoritative source for the run summary's
// actions_replayed figure.
func (s *Store) ReplayedCount() uint64 {
	var total uint64
	for i := range s.replayedCount {
		total += atomic.LoadUint64(&s.replayedCount[i])
	}
	return total
}

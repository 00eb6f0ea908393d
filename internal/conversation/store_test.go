package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/pcapreplay/pcapreplay/internal/flow"
)

func TestStoreCreatesFirstFlowWhenNoRulesConfigured(t *testing.T) {
	store := NewStore(flow.NewRegistry())

	client := [4]byte{10, 0, 0, 1}
	server := [4]byte{10, 0, 0, 2}

	syn := buildIPv4TCP(t, client, server, clientPort, serverPort, flagSYN, nil)
	conv, err := store.Ingest(syn)
	require.NoError(t, err)
	require.NotNil(t, conv)
	assert.Equal(t, 1, store.Len())

	synAck := buildIPv4TCP(t, server, client, serverPort, clientPort, flagSYNACK, nil)
	same, err := store.Ingest(synAck)
	require.NoError(t, err)
	assert.Same(t, conv, same)
	assert.Equal(t, 1, store.Len())
}

func TestStoreDropsUnmatchedFlowsOnceARuleExists(t *testing.T) {
	rules := flow.NewRegistry()
	require.NoError(t, rules.AddSpec("10.0.0.9"))
	store := NewStore(rules)

	other := [4]byte{10, 0, 0, 1}
	server := [4]byte{10, 0, 0, 2}
	syn := buildIPv4TCP(t, other, server, clientPort, serverPort, flagSYN, nil)

	conv, err := store.Ingest(syn)
	require.NoError(t, err)
	assert.Nil(t, conv)
	assert.Equal(t, 0, store.Len())
}

func TestStoreCreatesConversationForMatchedRule(t *testing.T) {
	rules := flow.NewRegistry()
	require.NoError(t, rules.AddSpec("10.0.0.1:5000:10.0.0.99:9999"))
	store := NewStore(rules)

	client := [4]byte{10, 0, 0, 1}
	server := [4]byte{10, 0, 0, 2}
	syn := buildIPv4TCP(t, client, server, clientPort, serverPort, flagSYN, nil)

	conv, err := store.Ingest(syn)
	require.NoError(t, err)
	require.NotNil(t, conv)

	sa, ok := conv.TestSockAddr().(*unix.SockaddrInet4)
	require.True(t, ok)
	assert.Equal(t, [4]byte{10, 0, 0, 99}, sa.Addr)
	assert.Equal(t, 9999, sa.Port)
}

func TestStorePreservesCreationOrderForReplay(t *testing.T) {
	rules := flow.NewRegistry()
	require.NoError(t, rules.AddSpec("10.0.0.1"))
	require.NoError(t, rules.AddSpec("10.0.0.3"))
	store := NewStore(rules)

	first := buildIPv4TCP(t, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, clientPort, serverPort, flagSYN, nil)
	second := buildIPv4UDP(t, [4]byte{10, 0, 0, 3}, [4]byte{10, 0, 0, 4}, clientPort, serverPort, []byte("x"))

	_, err := store.Ingest(first)
	require.NoError(t, err)
	_, err = store.Ingest(second)
	require.NoError(t, err)

	convs := store.Conversations()
	require.Len(t, convs, 2)
	assert.Equal(t, "TCP", convs[0].Protocol())
	assert.Equal(t, "UDP", convs[1].Protocol())
}

func TestStoreEntriesPairConversationsWithTheirFlowKey(t *testing.T) {
	rules := flow.NewRegistry()
	require.NoError(t, rules.AddSpec("10.0.0.1"))
	require.NoError(t, rules.AddSpec("10.0.0.3"))
	store := NewStore(rules)

	first := buildIPv4TCP(t, [4]byte{10, 0, 0, 1}, [4]byte{10, 0, 0, 2}, clientPort, serverPort, flagSYN, nil)
	second := buildIPv4UDP(t, [4]byte{10, 0, 0, 3}, [4]byte{10, 0, 0, 4}, clientPort, serverPort, []byte("x"))

	_, err := store.Ingest(first)
	require.NoError(t, err)
	_, err = store.Ingest(second)
	require.NoError(t, err)

	entries := store.Entries()
	require.Len(t, entries, 2)
	convs := store.Conversations()
	for i, e := range entries {
		assert.Same(t, convs[i], e.Conv)
		assert.NotEmpty(t, e.Key)
	}
	assert.NotEqual(t, entries[0].Key, entries[1].Key)
}

func TestStoreRecordReplayedAccumulatesAcrossKeys(t *testing.T) {
	store := NewStore(flow.NewRegistry())

	store.RecordReplayed("flow-a")
	store.RecordReplayed("flow-a")
	store.RecordReplayed("flow-b")

	assert.Equal(t, uint64(3), store.ReplayedCount())
}

func TestStoreIngestedCountTracksAllPackets(t *testing.T) {
	store := NewStore(flow.NewRegistry())

	client := [4]byte{10, 0, 0, 1}
	server := [4]byte{10, 0, 0, 2}

	syn := buildIPv4TCP(t, client, server, clientPort, serverPort, flagSYN, nil)
	synAck := buildIPv4TCP(t, server, client, serverPort, clientPort, flagSYNACK, nil)

	_, err := store.Ingest(syn)
	require.NoError(t, err)
	_, err = store.Ingest(synAck)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), store.IngestedCount())
}

package script

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
)

func TestEncodeDecodeLiteralPayloadRoundTrip(t *testing.T) {
	c := &Conversation{
		Header: Header{Protocol: "TCP", TestAddr: "127.0.0.1", TestPort: 8080},
		Actions: []*conversation.Action{
			{Type: conversation.CONNECT},
			conversation.NewAction(conversation.SEND, []byte("GET / HTTP/1.1\r\n\r\n")),
			conversation.NewAction(conversation.RECV, []byte("HTTP/1.1 200 OK\r\n\r\nhello")),
			{Type: conversation.CLOSE},
		},
	}

	encoded := Encode(c)
	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)

	assert.Equal(t, c.Header, decoded.Header)
	require.Len(t, decoded.Actions, len(c.Actions))
	for i := range c.Actions {
		assert.Equal(t, c.Actions[i].Type, decoded.Actions[i].Type)
		assert.Equal(t, c.Actions[i].Payload, decoded.Actions[i].Payload)
	}
}

func TestEncodeDecodeBinaryPayloadUsesBase64(t *testing.T) {
	payload := []byte{0x00, 0xff, 'A'}
	c := &Conversation{
		Header:  Header{Protocol: "TCP", TestAddr: "127.0.0.1", TestPort: 1},
		Actions: []*conversation.Action{conversation.NewAction(conversation.SEND, payload)},
	}

	encoded := Encode(c)
	assert.Contains(t, string(encoded), "Encoding: BASE64")
	assert.Contains(t, string(encoded), "<#DATA_START#>\nAP9B\n<#DATA_END#>")

	decoded, err := Decode(bytes.NewReader(encoded))
	require.NoError(t, err)
	require.Len(t, decoded.Actions, 1)
	assert.Equal(t, payload, decoded.Actions[0].Payload)
}

func TestDecodeToleratesSeparatorsAndComments(t *testing.T) {
	text := "Protocol: UDP\n" +
		"TestAddress: 10.0.0.5\n" +
		"TestPort: 53\n" +
		"\n" +
		"# a comment before the first action\n" +
		"SEND\n" +
		"<#DATA_START#>\n" +
		"ping\n" +
		"<#DATA_END#>\n" +
		separator + "\n" +
		"RECV\n" +
		"<#DATA_START#>\n" +
		"pong\n" +
		"<#DATA_END#>\n"

	c, err := Decode(bytes.NewReader([]byte(text)))
	require.NoError(t, err)
	assert.Equal(t, "UDP", c.Header.Protocol)
	assert.Equal(t, uint16(53), c.Header.TestPort)
	require.Len(t, c.Actions, 2)
	assert.Equal(t, []byte("ping"), c.Actions[0].Payload)
	assert.Equal(t, []byte("pong"), c.Actions[1].Payload)
}

func TestFindSubTokensMarksTemplateRegions(t *testing.T) {
	payload := []byte("session=${sid}; user=${name}")
	tokens := FindSubTokens(payload)
	require.Len(t, tokens, 2)
	assert.Equal(t, "sid", tokens[0].Text)
	assert.Equal(t, payload[tokens[0].Begin:tokens[0].End], []byte("${sid}"))
	assert.Equal(t, "name", tokens[1].Text)
	assert.Equal(t, payload[tokens[1].Begin:tokens[1].End], []byte("${name}"))
}

func TestDecodeRejectsMissingDataStart(t *testing.T) {
	text := "Protocol: TCP\nTestAddress: 1.2.3.4\nTestPort: 80\n\nSEND\n"
	_, err := Decode(bytes.NewReader([]byte(text)))
	assert.Error(t, err)
}

func TestDecodeRejectsMissingHeader(t *testing.T) {
	text := "Protocol: TCP\n\nSEND\n<#DATA_START#>\nx\n<#DATA_END#>\n"
	_, err := Decode(bytes.NewReader([]byte(text)))
	assert.Error(t, err)
}

package replay

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pcapreplay/pcapreplay/internal/conversation"
	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
	"github.com/pcapreplay/pcapreplay/internal/validator"
)

func buildIPv4UDPDatagram(t *testing.T, srcIP, dstIP [4]byte, srcPort, dstPort uint16, payload []byte) *netlayers.TransportPacket {
	t.Helper()
	udpLen := 8 + len(payload)
	frame := make([]byte, 14+20+udpLen)
	frame[12], frame[13] = 0x08, 0x00

	ip := frame[14:]
	ip[0] = 0x45
	ipLen := 20 + udpLen
	ip[2], ip[3] = byte(ipLen>>8), byte(ipLen)
	ip[8], ip[9] = 64, 17
	copy(ip[12:16], srcIP[:])
	copy(ip[16:20], dstIP[:])

	udp := ip[20:]
	udp[0], udp[1] = byte(srcPort>>8), byte(srcPort)
	udp[2], udp[3] = byte(dstPort>>8), byte(dstPort)
	udp[4], udp[5] = byte(udpLen>>8), byte(udpLen)
	copy(udp[8:], payload)

	pkt, err := netlayers.Dissect(netlayers.LinkTypeEthernet, len(frame), len(frame), frame)
	require.NoError(t, err)
	return pkt
}

func TestUDPEngineReplaysSendAndValidatesRecv(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
	require.NoError(t, err)
	defer conn.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		buf := make([]byte, 64)
		n, raddr, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		require.Equal(t, "ping", string(buf[:n]))
		_, _ = conn.WriteToUDP([]byte("pong"), raddr)
	}()

	addr := conn.LocalAddr().(*net.UDPAddr)
	loopback := [4]byte{127, 0, 0, 1}
	datagram := buildIPv4UDPDatagram(t, loopback, loopback, 6000, uint16(addr.Port), []byte("ping"))

	conv, err := conversation.NewUdpConversation(datagram, "", 0, false)
	require.NoError(t, err)
	require.NoError(t, conv.Ingest(datagram))
	require.Equal(t, 1, conv.Actions().Len())
	sendAction, _ := conv.Actions().Pop()
	require.Equal(t, conversation.SEND, sendAction.Type)

	conv.Actions().Push(sendAction)
	conv.Actions().Push(conversation.NewAction(conversation.RECV, []byte("pong")))

	engine := NewUDPEngine(conv, validator.DefaultValidator{})
	require.NoError(t, engine.Replay())
	<-serverDone
}

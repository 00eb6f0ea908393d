package conversation

import (
	"testing"

	"github.com/stretchr/testify/require"

	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
)

// buildIPv4TCP assembles a minimal Ethernet+IPv4+TCP frame carrying payload,
// mirroring the layers package's own test helper since frames must be built
// fresh in every package that needs a dissected packet fixture.
func buildIPv4TCP(t *testing.T, srcIP, dstIP [4]byte, srcPort, dstPort uint16, flags byte, payload []byte) *netlayers.TransportPacket {
	t.Helper()

	tcpLen := 20 + len(payload)
	ipLen := 20 + tcpLen
	frame := make([]byte, 14+ipLen)

	copy(frame[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa})
	copy(frame[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb})
	frame[12] = 0x08
	frame[13] = 0x00

	ip := frame[14:]
	ip[0] = 0x45
	ip[2] = byte(ipLen >> 8)
	ip[3] = byte(ipLen)
	ip[8] = 64
	ip[9] = 6
	copy(ip[12:16], srcIP[:])
	copy(ip[16:20], dstIP[:])

	tcp := ip[20:]
	tcp[0] = byte(srcPort >> 8)
	tcp[1] = byte(srcPort)
	tcp[2] = byte(dstPort >> 8)
	tcp[3] = byte(dstPort)
	tcp[12] = 5 << 4
	tcp[13] = flags
	tcp[14] = 0xff
	tcp[15] = 0xff
	copy(tcp[20:], payload)

	pkt, err := netlayers.Dissect(netlayers.LinkTypeEthernet, len(frame), len(frame), frame)
	require.NoError(t, err)
	require.NotNil(t, pkt)
	return pkt
}

// buildIPv4UDP assembles a minimal Ethernet+IPv4+UDP frame carrying payload.
func buildIPv4UDP(t *testing.T, srcIP, dstIP [4]byte, srcPort, dstPort uint16, payload []byte) *netlayers.TransportPacket {
	t.Helper()

	udpLen := 8 + len(payload)
	ipLen := 20 + udpLen
	frame := make([]byte, 14+ipLen)

	copy(frame[0:6], []byte{0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa})
	copy(frame[6:12], []byte{0xbb, 0xbb, 0xbb, 0xbb, 0xbb, 0xbb})
	frame[12] = 0x08
	frame[13] = 0x00

	ip := frame[14:]
	ip[0] = 0x45
	ip[2] = byte(ipLen >> 8)
	ip[3] = byte(ipLen)
	ip[8] = 64
	ip[9] = 17
	copy(ip[12:16], srcIP[:])
	copy(ip[16:20], dstIP[:])

	udp := ip[20:]
	udp[0] = byte(srcPort >> 8)
	udp[1] = byte(srcPort)
	udp[2] = byte(dstPort >> 8)
	udp[3] = byte(dstPort)
	udp[4] = byte(udpLen >> 8)
	udp[5] = byte(udpLen)
	copy(udp[8:], payload)

	pkt, err := netlayers.Dissect(netlayers.LinkTypeEthernet, len(frame), len(frame), frame)
	require.NoError(t, err)
	require.NotNil(t, pkt)
	return pkt
}

// Package flow computes the canonical, direction-insensitive flow key used
// to demultiplex packets into conversations, and holds the target-server
// rewrite-rule registry consulted when a conversation is first created.
package flow

import (
	"bytes"
	"strconv"

	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
	"github.com/pcapreplay/pcapreplay/internal/util"
)

const keySeparator = ":"

// Key computes the canonical FlowKey for a dissected packet: the ordered
// pair of (addr, port) in ascending order, first by address bytes then by
// port, so that packets traveling in either direction of the same flow
// produce the identical string.
func Key(pkt *netlayers.TransportPacket) string {
	l3 := pkt.Layer3()
	l4 := pkt.Layer4()

	srcAddr, dstAddr := l3.SrcAddr(), l3.DestAddr()
	srcPort, dstPort := l4.SrcPort(), l4.DestPort()

	srcHex := util.BytesToHexString(srcAddr)
	dstHex := util.BytesToHexString(dstAddr)

	cmp := bytes.Compare(srcAddr, dstAddr)

	if cmp == 0 {
		if srcPort < dstPort {
			return generateKey(srcHex, srcPort, dstHex, dstPort)
		}
		return generateKey(dstHex, dstPort, srcHex, srcPort)
	} else if cmp < 0 {
		return generateKey(srcHex, srcPort, dstHex, dstPort)
	}
	return generateKey(dstHex, dstPort, srcHex, srcPort)
}

func generateKey(addr1 string, port1 uint16, addr2 string, port2 uint16) string {
	return addr1 + keySeparator + strconv.Itoa(int(port1)) + keySeparator + addr2 + keySeparator + strconv.Itoa(int(port2))
}

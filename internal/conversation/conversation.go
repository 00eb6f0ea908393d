package conversation

import (
	netlayers "github.com/pcapreplay/pcapreplay/internal/layers"
	"golang.org/x/sys/unix"
)

// Conversation is implemented by TcpConversation and UdpConversation: the
// tagged-variant shape the design notes call for instead of a base class.
type Conversation interface {
	// Protocol names the conversation's transport ("TCP" or "UDP").
	Protocol() string

	// AddressFamily returns unix.AF_INET or unix.AF_INET6.
	AddressFamily() int

	// TestSockAddr is the OS-level socket address replay connects or
	// sends to, precomputed at creation time.
	TestSockAddr() unix.Sockaddr

	// Actions exposes the action queue for draining by a replay engine.
	Actions() *Queue

	// Ingest folds one captured packet belonging to this flow into the
	// action log.
	Ingest(pkt *netlayers.TransportPacket) error
}

// addressing holds the fields common to every conversation variant,
// established once at creation and never mutated afterward.
type addressing struct {
	addrFamily   int
	addrSize     int
	sockAddrSize int

	capSrcAddr  []byte
	capSrcPort  uint16
	capDestAddr []byte
	capDestPort uint16

	testDestAddr []byte
	testDestPort uint16
	testSockAddr unix.Sockaddr

	actions Queue
}

// newAddressing builds the common addressing state from the packet that
// created this conversation and, optionally, a matched rewrite rule. When
// rule is nil the test-side address is copied verbatim from the
// capture-side destination.
func newAddressing(pkt *netlayers.TransportPacket, ruleAddr string, rulePort uint16, hasRule bool) (addressing, error) {
	l3 := pkt.Layer3()
	l4 := pkt.Layer4()

	a := addressing{
		addrFamily:   l3.AddressFamily(),
		addrSize:     l3.AddrSize(),
		sockAddrSize: l3.SockAddrSize(),
		capSrcAddr:   append([]byte(nil), l3.SrcAddr()...),
		capDestAddr:  append([]byte(nil), l3.DestAddr()...),
		capSrcPort:   l4.SrcPort(),
		capDestPort:  l4.DestPort(),
	}

	if hasRule {
		addr, err := l3.ParseAddr(ruleAddr)
		if err != nil {
			return addressing{}, err
		}
		a.testDestAddr = addr
		a.testDestPort = rulePort
	} else {
		a.testDestAddr = append([]byte(nil), a.capDestAddr...)
		a.testDestPort = a.capDestPort
	}

	sa, err := l3.BuildSockAddr(a.testDestAddr, a.testDestPort)
	if err != nil {
		return addressing{}, err
	}
	a.testSockAddr = sa

	return a, nil
}

func (a *addressing) AddressFamily() int          { return a.addrFamily }
func (a *addressing) TestSockAddr() unix.Sockaddr { return a.testSockAddr }
func (a *addressing) Actions() *Queue             { return &a.actions }

// matchesCapSrc reports whether addr equals the remembered capture-side
// source address.
func (a *addressing) matchesCapSrc(addr []byte) bool { return bytesEqual(addr, a.capSrcAddr) }

// matchesCapDest reports whether addr equals the remembered capture-side
// destination address.
func (a *addressing) matchesCapDest(addr []byte) bool { return bytesEqual(addr, a.capDestAddr) }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

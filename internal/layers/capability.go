package layers

import "golang.org/x/sys/unix"

// Layer3Ops is implemented by every network-layer view (IPv4, IPv6).
// Building a socket address is mapped onto Go's unix.Sockaddr interface
// rather than a raw byte buffer: unix.Connect and unix.Sendto consume a
// unix.Sockaddr directly, so constructing the sockaddr_in/sockaddr_in6
// byte layout by hand would just be undone again by the syscall wrapper.
// AddrSize/SockAddrSize are recorded on every conversation even though
// the replay path never needs to size a raw struct by hand.
type Layer3Ops interface {
	Layer

	// AddressFamily returns unix.AF_INET or unix.AF_INET6.
	AddressFamily() int

	// AddrSize is the length in bytes of a single address (4 or 16).
	AddrSize() int

	// SockAddrSize is the size in bytes of the OS sockaddr structure for
	// this family (sockaddr_in / sockaddr_in6).
	SockAddrSize() int

	SrcAddr() []byte
	DestAddr() []byte

	// NextProtocol is the IP protocol number of the encapsulated layer.
	NextProtocol() uint8

	// ParseAddr converts a numeric string address into raw address bytes.
	ParseAddr(s string) ([]byte, error)

	// BuildSockAddr builds the OS-level socket address used to connect or
	// sendto the given address/port pair.
	BuildSockAddr(addr []byte, port uint16) (unix.Sockaddr, error)

	SrcAddrStr() string
}

// Layer4Ops is implemented by every transport-layer view (TCP, UDP).
type Layer4Ops interface {
	Layer

	SrcPort() uint16
	DestPort() uint16
}

// TCPFlags exposes the subset of TCP header flags the conversation state
// machine inspects.
type TCPFlags interface {
	HasSYN() bool
	HasACK() bool
	HasRST() bool
	HasFIN() bool
}

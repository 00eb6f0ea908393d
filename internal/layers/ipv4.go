package layers

import (
	"net"

	"github.com/google/gopacket"
	galayers "github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"
)

// IPv4View is a zero-copy view over an IPv4 header.
type IPv4View struct {
	ip galayers.IPv4
}

// NewIPv4 decodes an IPv4 header from payload.
func NewIPv4(payload []byte) (*IPv4View, error) {
	var v IPv4View
	if err := v.ip.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *IPv4View) Protocol() Protocol  { return ProtoIPv4 }
func (v *IPv4View) LayerNumber() Number { return Network }
func (v *IPv4View) Payload() []byte     { return v.ip.LayerPayload() }

func (v *IPv4View) AddressFamily() int   { return unix.AF_INET }
func (v *IPv4View) AddrSize() int        { return net.IPv4len }
func (v *IPv4View) SockAddrSize() int    { return unix.SizeofSockaddrInet4 }
func (v *IPv4View) SrcAddr() []byte      { return v.ip.SrcIP.To4() }
func (v *IPv4View) DestAddr() []byte     { return v.ip.DstIP.To4() }
func (v *IPv4View) NextProtocol() uint8  { return uint8(v.ip.Protocol) }
func (v *IPv4View) SrcAddrStr() string   { return v.ip.SrcIP.String() }

func (v *IPv4View) ParseAddr(s string) ([]byte, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, ErrMalformed{Reason: "invalid IP address '" + s + "'"}
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, ErrMalformed{Reason: "not an IPv4 address '" + s + "'"}
	}
	return ip4, nil
}

func (v *IPv4View) BuildSockAddr(addr []byte, port uint16) (unix.Sockaddr, error) {
	if len(addr) != net.IPv4len {
		return nil, ErrMalformed{Reason: "invalid IPv4 address length"}
	}
	sa := &unix.SockaddrInet4{Port: int(port)}
	copy(sa.Addr[:], addr)
	return sa, nil
}

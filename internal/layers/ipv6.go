package layers

import (
	"net"

	"github.com/google/gopacket"
	galayers "github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"
)

// IPv6View is a zero-copy view over an IPv6 header. Extension headers are
// not parsed: NextHeader is reported as-is even when it names an extension
// header rather than the true upper-layer protocol.
type IPv6View struct {
	ip galayers.IPv6
}

// NewIPv6 decodes a fixed 40 byte IPv6 header from payload.
func NewIPv6(payload []byte) (*IPv6View, error) {
	var v IPv6View
	if err := v.ip.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *IPv6View) Protocol() Protocol  { return ProtoIPv6 }
func (v *IPv6View) LayerNumber() Number { return Network }
func (v *IPv6View) Payload() []byte     { return v.ip.LayerPayload() }

func (v *IPv6View) AddressFamily() int  { return unix.AF_INET6 }
func (v *IPv6View) AddrSize() int       { return net.IPv6len }
func (v *IPv6View) SockAddrSize() int   { return unix.SizeofSockaddrInet6 }
func (v *IPv6View) SrcAddr() []byte     { return v.ip.SrcIP.To16() }
func (v *IPv6View) DestAddr() []byte    { return v.ip.DstIP.To16() }
func (v *IPv6View) NextProtocol() uint8 { return uint8(v.ip.NextHeader) }
func (v *IPv6View) SrcAddrStr() string  { return v.ip.SrcIP.String() }

func (v *IPv6View) ParseAddr(s string) ([]byte, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, ErrMalformed{Reason: "invalid IP address '" + s + "'"}
	}
	ip16 := ip.To16()
	if ip16 == nil || ip.To4() != nil {
		return nil, ErrMalformed{Reason: "not an IPv6 address '" + s + "'"}
	}
	return ip16, nil
}

func (v *IPv6View) BuildSockAddr(addr []byte, port uint16) (unix.Sockaddr, error) {
	if len(addr) != net.IPv6len {
		return nil, ErrMalformed{Reason: "invalid IPv6 address length"}
	}
	sa := &unix.SockaddrInet6{Port: int(port)}
	copy(sa.Addr[:], addr)
	return sa, nil
}

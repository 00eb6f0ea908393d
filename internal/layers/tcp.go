package layers

import (
	"github.com/google/gopacket"
	galayers "github.com/google/gopacket/layers"
)

// TCPView is a zero-copy view over a TCP segment. Payload extraction
// honors DataOffset; gopacket's own DecodeFromBytes already slices
// LayerPayload() at dataOffset*4, so no extra bookkeeping is needed here.
type TCPView struct {
	tcp galayers.TCP
}

// NewTCP decodes a TCP segment from payload.
func NewTCP(payload []byte) (*TCPView, error) {
	var v TCPView
	if err := v.tcp.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *TCPView) Protocol() Protocol  { return ProtoTCP }
func (v *TCPView) LayerNumber() Number { return Transport }
func (v *TCPView) Payload() []byte     { return v.tcp.LayerPayload() }

func (v *TCPView) SrcPort() uint16  { return uint16(v.tcp.SrcPort) }
func (v *TCPView) DestPort() uint16 { return uint16(v.tcp.DstPort) }

func (v *TCPView) HasSYN() bool { return v.tcp.SYN }
func (v *TCPView) HasACK() bool { return v.tcp.ACK }
func (v *TCPView) HasRST() bool { return v.tcp.RST }
func (v *TCPView) HasFIN() bool { return v.tcp.FIN }

// IsSYNOnly reports whether SYN is the only control flag set on this
// segment, as required by the CLOSED -> SYN_SENT transition.
func (v *TCPView) IsSYNOnly() bool {
	return v.tcp.SYN && !v.tcp.ACK && !v.tcp.FIN && !v.tcp.RST && !v.tcp.PSH && !v.tcp.URG
}

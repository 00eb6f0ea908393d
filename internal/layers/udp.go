package layers

import (
	"github.com/google/gopacket"
	galayers "github.com/google/gopacket/layers"
)

// UDPView is a zero-copy view over a UDP datagram.
type UDPView struct {
	udp galayers.UDP
}

// NewUDP decodes a UDP datagram from payload.
func NewUDP(payload []byte) (*UDPView, error) {
	var v UDPView
	if err := v.udp.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, ErrMalformed{Reason: err.Error()}
	}
	return &v, nil
}

func (v *UDPView) Protocol() Protocol  { return ProtoUDP }
func (v *UDPView) LayerNumber() Number { return Transport }
func (v *UDPView) Payload() []byte     { return v.udp.LayerPayload() }

func (v *UDPView) SrcPort() uint16  { return uint16(v.udp.SrcPort) }
func (v *UDPView) DestPort() uint16 { return uint16(v.udp.DstPort) }

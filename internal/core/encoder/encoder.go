// Package encoder builds Ethernet frames carrying vlan headers.
package encoder

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/vlantag/internal/core"
)

// VLANLayer adapts a vlan header to gopacket serialization.
type VLANLayer struct {
	Header core.VLANHeader
}

var _ gopacket.SerializableLayer = (*VLANLayer)(nil)

// LayerType implements gopacket.SerializableLayer.
func (l *VLANLayer) LayerType() gopacket.LayerType { return layers.LayerTypeDot1Q }

// SerializeTo prepends the header's wire bytes to b.
func (l *VLANLayer) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	if l.Header == nil {
		return fmt.Errorf("vlan layer: no header")
	}
	wire, err := l.Header.AppendBinary(nil)
	if err != nil {
		return err
	}
	bytes, err := b.PrependBytes(len(wire))
	if err != nil {
		return err
	}
	copy(bytes, wire)
	return nil
}

// Frame describes an Ethernet frame to build.
type Frame struct {
	DstMAC net.HardwareAddr // nil means 00:00:00:00:00:00
	SrcMAC net.HardwareAddr // nil means 00:00:00:00:00:00

	// TPID is the ether type in front of the first tag.
	// Zero means 0x8100 for a single tag and 0x88A8 for a double tag.
	TPID uint16

	// VLAN is nil for an untagged frame.
	VLAN core.VLANHeader

	// EtherType of an untagged frame. Tagged frames carry it in the header.
	EtherType uint16

	Payload []byte
}

func (f Frame) tpid() uint16 {
	if f.TPID != 0 {
		return f.TPID
	}
	if _, ok := f.VLAN.(core.DoubleVLANHeader); ok {
		return uint16(core.EtherTypeProviderBridging)
	}
	return uint16(core.EtherTypeVLANTaggedFrame)
}

func macOrZero(mac net.HardwareAddr) (net.HardwareAddr, error) {
	if mac == nil {
		return make(net.HardwareAddr, 6), nil
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("invalid mac address %s", mac)
	}
	return mac, nil
}

// BuildFrame serializes f. Frames shorter than 60 bytes are zero padded.
func BuildFrame(f Frame) ([]byte, error) {
	dst, err := macOrZero(f.DstMAC)
	if err != nil {
		return nil, err
	}
	src, err := macOrZero(f.SrcMAC)
	if err != nil {
		return nil, err
	}

	eth := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       dst,
		EthernetType: layers.EthernetType(f.EtherType),
	}
	stack := []gopacket.SerializableLayer{eth}
	if f.VLAN != nil {
		eth.EthernetType = layers.EthernetType(f.tpid())
		stack = append(stack, &VLANLayer{Header: f.VLAN})
	}
	stack = append(stack, gopacket.Payload(f.Payload))

	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, stack...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToDot1Q converts a single vlan header into a gopacket Dot1Q layer.
func ToDot1Q(h core.SingleVLANHeader) *layers.Dot1Q {
	return &layers.Dot1Q{
		Priority:       h.PriorityCodePoint,
		DropEligible:   h.DropEligibleIndicator,
		VLANIdentifier: h.VLANIdentifier,
		Type:           layers.EthernetType(h.EtherType),
	}
}

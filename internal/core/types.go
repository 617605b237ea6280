// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"net"
)

// Tagging describes how many vlan tags precede the frame's ether type.
type Tagging int

const (
	Untagged Tagging = iota
	SingleTagged
	DoubleTagged
)

func (t Tagging) String() string {
	switch t {
	case Untagged:
		return "untagged"
	case SingleTagged:
		return "single"
	case DoubleTagged:
		return "double"
	default:
		return fmt.Sprintf("tagging(%d)", int(t))
	}
}

// EthernetHeader represents L2 Ethernet frame header.
type EthernetHeader struct {
	SrcMAC    [6]byte
	DstMAC    [6]byte
	EtherType uint16     // Innermost ether type, after any vlan tags
	VLAN      VLANHeader // nil, SingleVLANHeader or DoubleVLANHeader
}

// Tagging reports the vlan tagging of the frame.
func (h EthernetHeader) Tagging() Tagging {
	switch h.VLAN.(type) {
	case SingleVLANHeader:
		return SingleTagged
	case DoubleVLANHeader:
		return DoubleTagged
	default:
		return Untagged
	}
}

// VLANIDs returns the vlan identifiers, outermost first.
func (h EthernetHeader) VLANIDs() []uint16 {
	switch v := h.VLAN.(type) {
	case SingleVLANHeader:
		return []uint16{v.VLANIdentifier}
	case DoubleVLANHeader:
		return []uint16{v.Outer.VLANIdentifier, v.Inner.VLANIdentifier}
	default:
		return nil
	}
}

// Labels returns ethernet and vlan labels of the header.
func (h EthernetHeader) Labels() Labels {
	l := Labels{
		LabelEthSrc:       net.HardwareAddr(h.SrcMAC[:]).String(),
		LabelEthDst:       net.HardwareAddr(h.DstMAC[:]).String(),
		LabelEthEtherType: fmt.Sprintf("0x%04x", h.EtherType),
		LabelEthTagging:   h.Tagging().String(),
	}
	if h.VLAN != nil {
		for k, v := range h.VLAN.Labels() {
			l[k] = v
		}
	}
	return l
}

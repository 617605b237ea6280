package core

import "fmt"

// EtherType identifies the protocol of the header that follows.
type EtherType uint16

// Well-known EtherType values.
const (
	EtherTypeIPv4                  EtherType = 0x0800
	EtherTypeARP                   EtherType = 0x0806
	EtherTypeWakeOnLAN             EtherType = 0x0842
	EtherTypeVLANTaggedFrame       EtherType = 0x8100 // IEEE 802.1Q
	EtherTypeIPv6                  EtherType = 0x86DD
	EtherTypeProviderBridging      EtherType = 0x88A8 // IEEE 802.1ad
	EtherTypeVLANDoubleTaggedFrame EtherType = 0x9100 // legacy Q-in-Q
)

var etherTypeNames = map[EtherType]string{
	EtherTypeIPv4:                  "IPv4",
	EtherTypeARP:                   "ARP",
	EtherTypeWakeOnLAN:             "WakeOnLAN",
	EtherTypeVLANTaggedFrame:       "VLANTaggedFrame",
	EtherTypeIPv6:                  "IPv6",
	EtherTypeProviderBridging:      "ProviderBridging",
	EtherTypeVLANDoubleTaggedFrame: "VLANDoubleTaggedFrame",
}

func (t EtherType) String() string {
	if name, ok := etherTypeNames[t]; ok {
		return fmt.Sprintf("%s(0x%04x)", name, uint16(t))
	}
	return fmt.Sprintf("0x%04x", uint16(t))
}

// IsVLANTag reports whether t announces a following vlan tag.
func (t EtherType) IsVLANTag() bool {
	return t == EtherTypeVLANTaggedFrame || t == EtherTypeProviderBridging || t == EtherTypeVLANDoubleTaggedFrame
}

// DefaultTagProtocolIdentifiers are the tag protocol identifiers a frame decoder
// accepts unless configured otherwise.
func DefaultTagProtocolIdentifiers() []EtherType {
	return []EtherType{EtherTypeVLANTaggedFrame, EtherTypeProviderBridging, EtherTypeVLANDoubleTaggedFrame}
}

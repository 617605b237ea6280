// Package decoder implements L2 frame decoding.
package decoder

import (
	"encoding/binary"

	"firestige.xyz/vlantag/internal/core"
)

const (
	// Ethernet constants
	ethernetHeaderLen = 14
	macLen            = 6

	// At most an outer and an inner tag are decoded
	maxVLANTags = 2
)

// tpidSet holds the ether types treated as vlan tag protocol identifiers.
type tpidSet []uint16

func newTPIDSet(tpids []uint16) tpidSet {
	if len(tpids) == 0 {
		for _, t := range core.DefaultTagProtocolIdentifiers() {
			tpids = append(tpids, uint16(t))
		}
	}
	return tpidSet(tpids)
}

func (s tpidSet) has(etherType uint16) bool {
	for _, t := range s {
		if t == etherType {
			return true
		}
	}
	return false
}

// decodeEthernet decodes Ethernet frame header (including VLAN tags).
// Returns EthernetHeader and the payload after the innermost ether type.
func decodeEthernet(data []byte, tpids tpidSet) (core.EthernetHeader, []byte, error) {
	if len(data) < ethernetHeaderLen {
		return core.EthernetHeader{}, nil, core.ErrPacketTooShort
	}

	eth := core.EthernetHeader{}

	// Destination MAC (6 bytes)
	copy(eth.DstMAC[:], data[0:macLen])

	// Source MAC (6 bytes)
	copy(eth.SrcMAC[:], data[macLen:2*macLen])

	// EtherType (2 bytes)
	etherType := binary.BigEndian.Uint16(data[12:14])
	offset := ethernetHeaderLen

	if tpids.has(etherType) {
		tag, err := core.NewSingleVLANHeaderSlice(data[offset:])
		if err != nil {
			return eth, nil, err
		}

		// The tag's own ether type is a tpid again: Q-in-Q
		if tpids.has(tag.EtherType()) {
			tags, err := core.NewDoubleVLANHeaderSlice(data[offset:])
			if err != nil {
				return eth, nil, err
			}
			h := tags.ToHeader()
			eth.VLAN = h
			etherType = h.Inner.EtherType
			offset += core.DoubleVLANHeaderLen
		} else {
			h := tag.ToHeader()
			eth.VLAN = h
			etherType = h.EtherType
			offset += core.SingleVLANHeaderLen
		}
	}

	eth.EtherType = etherType

	payload := data[offset:]
	return eth, payload, nil
}

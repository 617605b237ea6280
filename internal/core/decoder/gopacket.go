package decoder

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/vlantag/internal/core"
)

// GopacketDecoder decodes frames with gopacket's Ethernet and Dot1Q layers.
// It produces the same result as StandardDecoder for Ethernet II frames and
// is used to cross-check it. Not safe for concurrent use, layers are reused.
type GopacketDecoder struct {
	tpids tpidSet
	eth   layers.Ethernet
	tags  [maxVLANTags]layers.Dot1Q
}

// NewGopacketDecoder creates a gopacket based decoder.
func NewGopacketDecoder(cfg Config) *GopacketDecoder {
	return &GopacketDecoder{
		tpids: newTPIDSet(cfg.TagProtocolIdentifiers),
	}
}

// Decode implements Decoder.
func (d *GopacketDecoder) Decode(raw core.RawPacket) (core.DecodedPacket, error) {
	if len(raw.Data) < ethernetHeaderLen {
		return core.DecodedPacket{}, core.ErrPacketTooShort
	}
	if err := d.eth.DecodeFromBytes(raw.Data, gopacket.NilDecodeFeedback); err != nil {
		return core.DecodedPacket{}, err
	}

	eth := core.EthernetHeader{}
	copy(eth.DstMAC[:], d.eth.DstMAC)
	copy(eth.SrcMAC[:], d.eth.SrcMAC)

	etherType := uint16(d.eth.EthernetType)
	payload := d.eth.Payload

	n := 0
	for n < maxVLANTags && d.tpids.has(etherType) {
		if len(payload) < core.SingleVLANHeaderLen {
			return core.DecodedPacket{}, core.ErrPacketTooShort
		}
		tag := &d.tags[n]
		if err := tag.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
			return core.DecodedPacket{}, err
		}
		etherType = uint16(tag.Type)
		payload = tag.Payload
		n++

		// a single tag is only followed by an inner one when its type is a tpid
		if n == 1 && !d.tpids.has(etherType) {
			break
		}
	}

	switch n {
	case 1:
		eth.VLAN = FromDot1Q(&d.tags[0])
	case 2:
		eth.VLAN = core.DoubleVLANHeader{
			Outer: FromDot1Q(&d.tags[0]),
			Inner: FromDot1Q(&d.tags[1]),
		}
	}
	eth.EtherType = etherType

	return core.DecodedPacket{
		Timestamp:  raw.Timestamp,
		Ethernet:   eth,
		Payload:    payload,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
	}, nil
}

// FromDot1Q converts a gopacket Dot1Q layer into a single vlan header.
func FromDot1Q(d *layers.Dot1Q) core.SingleVLANHeader {
	return core.SingleVLANHeader{
		PriorityCodePoint:     d.Priority,
		DropEligibleIndicator: d.DropEligible,
		VLANIdentifier:        d.VLANIdentifier,
		EtherType:             uint16(d.Type),
	}
}

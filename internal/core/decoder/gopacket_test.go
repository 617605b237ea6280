package decoder

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/vlantag/internal/core"
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, ls...))
	return buf.Bytes()
}

func TestDecodersAgree(t *testing.T) {
	src := net.HardwareAddr{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	dst := net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	payload := gopacket.Payload([]byte{0x45, 0x00, 0x00, 0x14})

	tests := []struct {
		name    string
		layers  []gopacket.SerializableLayer
		tagging core.Tagging
	}{
		{
			name: "untagged",
			layers: []gopacket.SerializableLayer{
				&layers.Ethernet{SrcMAC: src, DstMAC: dst, EthernetType: layers.EthernetTypeIPv4},
				payload,
			},
			tagging: core.Untagged,
		},
		{
			name: "single",
			layers: []gopacket.SerializableLayer{
				&layers.Ethernet{SrcMAC: src, DstMAC: dst, EthernetType: layers.EthernetTypeDot1Q},
				&layers.Dot1Q{Priority: 6, DropEligible: true, VLANIdentifier: 4000, Type: layers.EthernetTypeIPv6},
				payload,
			},
			tagging: core.SingleTagged,
		},
		{
			name: "qinq",
			layers: []gopacket.SerializableLayer{
				&layers.Ethernet{SrcMAC: src, DstMAC: dst, EthernetType: layers.EthernetType(core.EtherTypeProviderBridging)},
				&layers.Dot1Q{Priority: 3, VLANIdentifier: 100, Type: layers.EthernetTypeDot1Q},
				&layers.Dot1Q{Priority: 0, VLANIdentifier: 200, Type: layers.EthernetTypeARP},
				payload,
			},
			tagging: core.DoubleTagged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := core.RawPacket{Data: serialize(t, tt.layers...)}

			std, err := NewStandardDecoder(Config{}).Decode(raw)
			require.NoError(t, err)
			gp, err := NewGopacketDecoder(Config{}).Decode(raw)
			require.NoError(t, err)

			assert.Equal(t, std, gp)
			assert.Equal(t, tt.tagging, std.Ethernet.Tagging())
			assert.Equal(t, [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}, std.Ethernet.SrcMAC)
			// frames are padded to the ethernet minimum
			assert.Equal(t, []byte(payload), std.Payload[:len(payload)])
		})
	}
}

func TestGopacketDecoderTooShort(t *testing.T) {
	d := NewGopacketDecoder(Config{})

	_, err := d.Decode(core.RawPacket{Data: []byte{0x00, 0x11}})
	assert.ErrorIs(t, err, core.ErrPacketTooShort)

	_, err = d.Decode(core.RawPacket{Data: makeQinQPacket()[:20]})
	assert.ErrorIs(t, err, core.ErrPacketTooShort)
}

func TestFromDot1Q(t *testing.T) {
	h := FromDot1Q(&layers.Dot1Q{Priority: 2, DropEligible: true, VLANIdentifier: 1234, Type: layers.EthernetTypeIPv4})
	assert.Equal(t, core.SingleVLANHeader{
		PriorityCodePoint:     2,
		DropEligibleIndicator: true,
		VLANIdentifier:        1234,
		EtherType:             0x0800,
	}, h)

	b, err := h.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x54, 0xD2, 0x08, 0x00}, b)
}

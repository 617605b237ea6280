package decoder

import (
	"errors"
	"sync"
	"testing"
	"time"

	"firestige.xyz/vlantag/internal/core"
)

// makeQinQPacket creates an 802.1ad frame: S-tag 100, C-tag 200, IPv4 payload.
func makeQinQPacket() []byte {
	return []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // Dst MAC
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF, // Src MAC
		0x88, 0xA8, // S-tag TPID
		0xA0, 0x64, // PCP 5, VLAN ID 100
		0x81, 0x00, // C-tag TPID
		0x30, 0xC8, // PCP 1, DEI, VLAN ID 200
		0x08, 0x00, // IPv4
		0x45, 0x00, 0x00, 0x14, // Payload
	}
}

func TestStandardDecoderDecodeQinQ(t *testing.T) {
	decoder := NewStandardDecoder(Config{})
	packet := makeQinQPacket()
	now := time.Now()

	raw := core.RawPacket{
		Data:       packet,
		Timestamp:  now,
		CaptureLen: uint32(len(packet)),
		OrigLen:    uint32(len(packet)),
	}

	decoded, err := decoder.Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !decoded.Timestamp.Equal(now) {
		t.Errorf("Expected timestamp %v, got %v", now, decoded.Timestamp)
	}
	if decoded.CaptureLen != uint32(len(packet)) {
		t.Errorf("Expected CaptureLen %d, got %d", len(packet), decoded.CaptureLen)
	}

	expected := core.DoubleVLANHeader{
		Outer: core.SingleVLANHeader{PriorityCodePoint: 5, VLANIdentifier: 100, EtherType: 0x8100},
		Inner: core.SingleVLANHeader{PriorityCodePoint: 1, DropEligibleIndicator: true, VLANIdentifier: 200, EtherType: 0x0800},
	}
	if decoded.Ethernet.VLAN != expected {
		t.Errorf("Expected %v, got %v", expected, decoded.Ethernet.VLAN)
	}
	if decoded.Ethernet.EtherType != 0x0800 {
		t.Errorf("Expected EtherType 0x0800, got 0x%04x", decoded.Ethernet.EtherType)
	}
	if len(decoded.Payload) != 4 || decoded.Payload[0] != 0x45 {
		t.Errorf("Unexpected payload %x", decoded.Payload)
	}

	// payload is a view into the capture buffer
	if &decoded.Payload[0] != &packet[22] {
		t.Error("Expected payload to reference the raw buffer")
	}
}

func TestStandardDecoderEmptyPacket(t *testing.T) {
	decoder := NewStandardDecoder(Config{})

	raw := core.RawPacket{
		Data:       []byte{},
		Timestamp:  time.Now(),
		CaptureLen: 0,
		OrigLen:    0,
	}

	_, err := decoder.Decode(raw)
	if err == nil {
		t.Error("Expected error for empty packet, got nil")
	}
}

func TestStandardDecoderTooShort(t *testing.T) {
	decoder := NewStandardDecoder(Config{})

	raw := core.RawPacket{
		Data:       makeQinQPacket()[:20], // Inner tag cut off
		Timestamp:  time.Now(),
		CaptureLen: 20,
		OrigLen:    26,
	}

	_, err := decoder.Decode(raw)
	if !errors.Is(err, core.ErrPacketTooShort) {
		t.Errorf("Expected ErrPacketTooShort, got %v", err)
	}
}

func TestStandardDecoderStats(t *testing.T) {
	decoder := NewStandardDecoder(Config{})

	untagged := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x86, 0xDD,
	}
	single := []byte{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x81, 0x00, 0x00, 0x0A, 0x08, 0x06,
	}
	frames := [][]byte{untagged, single, single, makeQinQPacket(), {0x01}}

	var wg sync.WaitGroup
	for _, f := range frames {
		wg.Add(1)
		go func(data []byte) {
			defer wg.Done()
			_, _ = decoder.Decode(core.RawPacket{Data: data})
		}(f)
	}
	wg.Wait()

	stats := decoder.Stats()
	expected := Stats{Frames: 5, Untagged: 1, SingleTagged: 2, DoubleTagged: 1, Errors: 1}
	if stats != expected {
		t.Errorf("Expected stats %+v, got %+v", expected, stats)
	}
}

func BenchmarkStandardDecoderDecode(b *testing.B) {
	decoder := NewStandardDecoder(Config{})
	packet := makeQinQPacket()

	raw := core.RawPacket{
		Data:       packet,
		Timestamp:  time.Now(),
		CaptureLen: uint32(len(packet)),
		OrigLen:    uint32(len(packet)),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := decoder.Decode(raw)
		if err != nil {
			b.Fatal(err)
		}
	}
}

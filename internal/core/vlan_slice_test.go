package core

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestSingleVLANHeaderSlice(t *testing.T) {
	input := baseSingle()
	buf, err := input.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}

	// too small
	_, err = NewSingleVLANHeaderSlice(buf[:3])
	if !errors.Is(err, io.ErrUnexpectedEOF) || !errors.Is(err, ErrPacketTooShort) {
		t.Errorf("Expected io.ErrUnexpectedEOF and ErrPacketTooShort, got %v", err)
	}

	s, err := NewSingleVLANHeaderSlice(buf)
	if err != nil {
		t.Fatalf("NewSingleVLANHeaderSlice failed: %v", err)
	}
	if s.PriorityCodePoint() != input.PriorityCodePoint {
		t.Errorf("Expected pcp %d, got %d", input.PriorityCodePoint, s.PriorityCodePoint())
	}
	if s.DropEligibleIndicator() != input.DropEligibleIndicator {
		t.Errorf("Expected dei %v, got %v", input.DropEligibleIndicator, s.DropEligibleIndicator())
	}
	if s.VLANIdentifier() != input.VLANIdentifier {
		t.Errorf("Expected vid %d, got %d", input.VLANIdentifier, s.VLANIdentifier())
	}
	if s.EtherType() != input.EtherType {
		t.Errorf("Expected ether type 0x%04x, got 0x%04x", input.EtherType, s.EtherType())
	}
	if s.ToHeader() != input {
		t.Errorf("Expected %v, got %v", input, s.ToHeader())
	}

	// accessors are repeatable
	if s.ToHeader() != s.ToHeader() {
		t.Error("ToHeader is not repeatable")
	}
}

func TestSingleVLANHeaderSliceBindsFixedSize(t *testing.T) {
	data := []byte{0x54, 0xD2, 0x08, 0x00, 0x45, 0x00}
	s, err := NewSingleVLANHeaderSlice(data)
	if err != nil {
		t.Fatalf("NewSingleVLANHeaderSlice failed: %v", err)
	}
	if len(s.Slice()) != SingleVLANHeaderLen || cap(s.Slice()) != SingleVLANHeaderLen {
		t.Errorf("Expected len and cap %d, got %d and %d", SingleVLANHeaderLen, len(s.Slice()), cap(s.Slice()))
	}

	// the view borrows the buffer
	data[1] = 0x01
	if s.VLANIdentifier() != 0x401 {
		t.Errorf("Expected vid 0x401, got 0x%03x", s.VLANIdentifier())
	}
}

func TestDoubleVLANHeaderSlice(t *testing.T) {
	input := DoubleVLANHeader{
		Outer: SingleVLANHeader{
			EtherType:             uint16(EtherTypeProviderBridging),
			PriorityCodePoint:     2,
			DropEligibleIndicator: true,
			VLANIdentifier:        1234,
		},
		Inner: SingleVLANHeader{
			EtherType:             uint16(EtherTypeIPv6),
			PriorityCodePoint:     7,
			DropEligibleIndicator: false,
			VLANIdentifier:        4095,
		},
	}

	var buf bytes.Buffer
	if err := input.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	data := buf.Bytes()

	if _, err := NewDoubleVLANHeaderSlice(data[:7]); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Expected io.ErrUnexpectedEOF, got %v", err)
	}

	// the outer ether type is not checked on the view path
	s, err := NewDoubleVLANHeaderSlice(data)
	if err != nil {
		t.Fatalf("NewDoubleVLANHeaderSlice failed: %v", err)
	}
	if len(s.Slice()) != DoubleVLANHeaderLen {
		t.Errorf("Expected len %d, got %d", DoubleVLANHeaderLen, len(s.Slice()))
	}

	if got := s.Outer().ToHeader(); got != input.Outer {
		t.Errorf("Expected outer %v, got %v", input.Outer, got)
	}
	if got := s.Inner().ToHeader(); got != input.Inner {
		t.Errorf("Expected inner %v, got %v", input.Inner, got)
	}
	if s.Outer().VLANIdentifier() != 1234 || s.Inner().PriorityCodePoint() != 7 {
		t.Errorf("accessors disagree with ToHeader: outer vid %d, inner pcp %d",
			s.Outer().VLANIdentifier(), s.Inner().PriorityCodePoint())
	}
	if s.ToHeader() != input {
		t.Errorf("Expected %v, got %v", input, s.ToHeader())
	}

	// sub views point into the same memory
	if &s.Outer().Slice()[0] != &data[0] {
		t.Error("outer view does not share the input buffer")
	}
	if &s.Inner().Slice()[0] != &data[4] {
		t.Error("inner view does not share the input buffer")
	}
}

func TestSliceViewMatchesOwnedDecoder(t *testing.T) {
	// every first-byte pattern, including the unused combinations
	for b0 := 0; b0 <= 0xFF; b0++ {
		data := []byte{byte(b0), 0xA5, 0x86, 0xDD}

		owned, err := ReadSingleVLANHeader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("byte0=0x%02x: ReadSingleVLANHeader failed: %v", b0, err)
		}

		s, err := NewSingleVLANHeaderSlice(data)
		if err != nil {
			t.Fatalf("byte0=0x%02x: NewSingleVLANHeaderSlice failed: %v", b0, err)
		}

		if s.ToHeader() != owned {
			t.Fatalf("byte0=0x%02x: expected %v, got %v", b0, owned, s.ToHeader())
		}
		if err := owned.Validate(); err != nil {
			t.Fatalf("byte0=0x%02x: decoded values out of range: %v", b0, err)
		}
	}
}

func TestSliceViewTruncation(t *testing.T) {
	for n := 0; n < DoubleVLANHeaderLen; n++ {
		data := make([]byte, n)
		if n < SingleVLANHeaderLen {
			if _, err := NewSingleVLANHeaderSlice(data); !errors.Is(err, ErrPacketTooShort) {
				t.Errorf("len=%d: expected ErrPacketTooShort from single view, got %v", n, err)
			}
		}
		if _, err := NewDoubleVLANHeaderSlice(data); !errors.Is(err, ErrPacketTooShort) {
			t.Errorf("len=%d: expected ErrPacketTooShort from double view, got %v", n, err)
		}
	}

	_, err := NewSingleVLANHeaderSlice(nil)
	var tsErr *TooShortError
	if !errors.As(err, &tsErr) {
		t.Fatalf("Expected *TooShortError, got %v", err)
	}
	if tsErr.Required != SingleVLANHeaderLen || tsErr.Actual != 0 {
		t.Errorf("Expected required=%d actual=0, got required=%d actual=%d",
			SingleVLANHeaderLen, tsErr.Required, tsErr.Actual)
	}
}

func BenchmarkSingleVLANHeaderSliceToHeader(b *testing.B) {
	data := []byte{0x54, 0xD2, 0x08, 0x00}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s, err := NewSingleVLANHeaderSlice(data)
		if err != nil {
			b.Fatal(err)
		}
		_ = s.ToHeader()
	}
}

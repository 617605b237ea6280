// Package core defines core types with zero external dependencies.
package core

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Serialized header sizes in bytes.
const (
	SingleVLANHeaderLen = 4
	DoubleVLANHeaderLen = 2 * SingleVLANHeaderLen
)

// Tag control information layout (first two bytes of a tag):
//
//	byte 0: bits 7-5 priority code point, bit 4 drop eligible indicator, bits 3-0 VID 11-8
//	byte 1: VID 7-0
const (
	MaxPriorityCodePoint = 0x7
	MaxVLANIdentifier    = 0xfff

	pcpShift   = 5
	deiMask    = 0x10
	vidHighMsk = 0x0f
)

// VLANHeader is the vlan tagging present in a frame: a SingleVLANHeader or a
// DoubleVLANHeader.
type VLANHeader interface {
	// HeaderLen returns the serialized size in bytes.
	HeaderLen() int
	// Write validates and serializes the header.
	Write(w io.Writer) error
	// AppendBinary appends the serialized header to b.
	AppendBinary(b []byte) ([]byte, error)
	// Labels returns the header fields as label key/values.
	Labels() Labels
	String() string

	vlanHeader()
}

// SingleVLANHeader is an IEEE 802.1Q VLAN tagging header.
type SingleVLANHeader struct {
	// PriorityCodePoint is the 3 bit IEEE 802.1p class of service.
	PriorityCodePoint uint8
	// DropEligibleIndicator marks frames that may be dropped under congestion.
	DropEligibleIndicator bool
	// VLANIdentifier is the 12 bit vlan id.
	VLANIdentifier uint16
	// EtherType identifies the content after this header (tag protocol
	// identifier when another tag follows).
	EtherType uint16
}

// ReadSingleVLANHeader reads exactly SingleVLANHeaderLen bytes from r.
// A short read returns the error produced by io.ReadFull.
func ReadSingleVLANHeader(r io.Reader) (SingleVLANHeader, error) {
	var buf [SingleVLANHeaderLen]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return SingleVLANHeader{}, err
	}
	return SingleVLANHeaderSlice{slice: buf[:]}.ToHeader(), nil
}

// Validate checks that every field fits into its bit width.
func (h SingleVLANHeader) Validate() error {
	if err := maxCheckU8(h.PriorityCodePoint, MaxPriorityCodePoint, FieldPriorityCodePoint); err != nil {
		return err
	}
	return maxCheckU16(h.VLANIdentifier, MaxVLANIdentifier, FieldVLANIdentifier)
}

// Write serializes the header to w. Nothing is written when validation fails.
func (h SingleVLANHeader) Write(w io.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}
	var buf [SingleVLANHeaderLen]byte
	h.put(buf[:])
	return writeFull(w, buf[:])
}

// AppendBinary implements encoding.BinaryAppender.
func (h SingleVLANHeader) AppendBinary(b []byte) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return b, err
	}
	var buf [SingleVLANHeaderLen]byte
	h.put(buf[:])
	return append(b, buf[:]...), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h SingleVLANHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, SingleVLANHeaderLen))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Bytes past the header
// are ignored.
func (h *SingleVLANHeader) UnmarshalBinary(b []byte) error {
	s, err := NewSingleVLANHeaderSlice(b)
	if err != nil {
		return err
	}
	*h = s.ToHeader()
	return nil
}

// put packs an already validated header into b[:4].
func (h SingleVLANHeader) put(b []byte) {
	binary.BigEndian.PutUint16(b[0:2], h.VLANIdentifier)
	if h.DropEligibleIndicator {
		b[0] |= deiMask
	}
	b[0] |= h.PriorityCodePoint << pcpShift
	binary.BigEndian.PutUint16(b[2:4], h.EtherType)
}

func (h SingleVLANHeader) HeaderLen() int { return SingleVLANHeaderLen }

func (h SingleVLANHeader) Labels() Labels {
	l := make(Labels, 4)
	h.addLabels(l, "vlan.")
	return l
}

func (h SingleVLANHeader) addLabels(l Labels, prefix string) {
	l[prefix+LabelVLANID] = fmt.Sprintf("%d", h.VLANIdentifier)
	l[prefix+LabelVLANPriority] = fmt.Sprintf("%d", h.PriorityCodePoint)
	l[prefix+LabelVLANDropEligible] = fmt.Sprintf("%t", h.DropEligibleIndicator)
	l[prefix+LabelVLANEtherType] = fmt.Sprintf("0x%04x", h.EtherType)
}

func (h SingleVLANHeader) String() string {
	return fmt.Sprintf("vlan(pcp=%d dei=%t vid=%d type=%s)",
		h.PriorityCodePoint, h.DropEligibleIndicator, h.VLANIdentifier, EtherType(h.EtherType))
}

func (SingleVLANHeader) vlanHeader() {}

// DoubleVLANHeader is an IEEE 802.1Q double tagging ("Q-in-Q") header.
type DoubleVLANHeader struct {
	Outer SingleVLANHeader
	Inner SingleVLANHeader
}

// ReadDoubleVLANHeader reads an outer and an inner tag from r. The outer tag
// must carry EtherTypeVLANTaggedFrame, otherwise an *UnexpectedOuterTPIDError is
// returned and the inner tag is left unread. Input ending after the outer tag
// is reported as io.ErrUnexpectedEOF.
func ReadDoubleVLANHeader(r io.Reader) (DoubleVLANHeader, error) {
	outer, err := ReadSingleVLANHeader(r)
	if err != nil {
		return DoubleVLANHeader{}, err
	}
	if EtherType(outer.EtherType) != EtherTypeVLANTaggedFrame {
		return DoubleVLANHeader{}, &UnexpectedOuterTPIDError{TPID: outer.EtherType}
	}
	inner, err := ReadSingleVLANHeader(r)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return DoubleVLANHeader{}, err
	}
	return DoubleVLANHeader{Outer: outer, Inner: inner}, nil
}

// Validate checks both tags, outer first.
func (h DoubleVLANHeader) Validate() error {
	if err := h.Outer.Validate(); err != nil {
		return err
	}
	return h.Inner.Validate()
}

// Write serializes outer and inner tag to w in a single write. Both tags are
// validated before any byte is written. The outer ether type is not checked.
func (h DoubleVLANHeader) Write(w io.Writer) error {
	if err := h.Validate(); err != nil {
		return err
	}
	var buf [DoubleVLANHeaderLen]byte
	h.Outer.put(buf[:SingleVLANHeaderLen])
	h.Inner.put(buf[SingleVLANHeaderLen:])
	return writeFull(w, buf[:])
}

// AppendBinary implements encoding.BinaryAppender.
func (h DoubleVLANHeader) AppendBinary(b []byte) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return b, err
	}
	var buf [DoubleVLANHeaderLen]byte
	h.Outer.put(buf[:SingleVLANHeaderLen])
	h.Inner.put(buf[SingleVLANHeaderLen:])
	return append(b, buf[:]...), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h DoubleVLANHeader) MarshalBinary() ([]byte, error) {
	return h.AppendBinary(make([]byte, 0, DoubleVLANHeaderLen))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler with the same outer
// tag check as ReadDoubleVLANHeader.
func (h *DoubleVLANHeader) UnmarshalBinary(b []byte) error {
	s, err := NewDoubleVLANHeaderSlice(b)
	if err != nil {
		return err
	}
	if EtherType(s.Outer().EtherType()) != EtherTypeVLANTaggedFrame {
		return &UnexpectedOuterTPIDError{TPID: s.Outer().EtherType()}
	}
	*h = s.ToHeader()
	return nil
}

func (h DoubleVLANHeader) HeaderLen() int { return DoubleVLANHeaderLen }

func (h DoubleVLANHeader) Labels() Labels {
	l := make(Labels, 8)
	h.Outer.addLabels(l, "vlan.outer.")
	h.Inner.addLabels(l, "vlan.inner.")
	return l
}

func (h DoubleVLANHeader) String() string {
	return fmt.Sprintf("qinq(outer=%s inner=%s)", h.Outer, h.Inner)
}

func (DoubleVLANHeader) vlanHeader() {}

func writeFull(w io.Writer, b []byte) error {
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

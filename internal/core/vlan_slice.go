package core

import "encoding/binary"

// SingleVLANHeaderSlice is a read-only view over a serialized single vlan header.
// It borrows the underlying buffer; the buffer must not be modified while the
// view is in use.
type SingleVLANHeaderSlice struct {
	slice []byte
}

// NewSingleVLANHeaderSlice binds a view to the first SingleVLANHeaderLen bytes of b.
// Field ranges are not checked, every masked value is in range.
func NewSingleVLANHeaderSlice(b []byte) (SingleVLANHeaderSlice, error) {
	if len(b) < SingleVLANHeaderLen {
		return SingleVLANHeaderSlice{}, &TooShortError{Header: "single vlan header", Required: SingleVLANHeaderLen, Actual: len(b)}
	}
	return SingleVLANHeaderSlice{slice: b[:SingleVLANHeaderLen:SingleVLANHeaderLen]}, nil
}

// Slice returns the bytes of the header.
func (s SingleVLANHeaderSlice) Slice() []byte { return s.slice }

// PriorityCodePoint returns the 3 bit IEEE 802.1p class of service.
func (s SingleVLANHeaderSlice) PriorityCodePoint() uint8 {
	return s.slice[0] >> pcpShift
}

// DropEligibleIndicator reports whether the frame may be dropped under congestion.
func (s SingleVLANHeaderSlice) DropEligibleIndicator() bool {
	return s.slice[0]&deiMask != 0
}

// VLANIdentifier returns the 12 bit vlan id.
func (s SingleVLANHeaderSlice) VLANIdentifier() uint16 {
	return uint16(s.slice[0]&vidHighMsk)<<8 | uint16(s.slice[1])
}

// EtherType returns the type of the content after the header.
func (s SingleVLANHeaderSlice) EtherType() uint16 {
	return binary.BigEndian.Uint16(s.slice[2:4])
}

// ToHeader decodes all fields into a SingleVLANHeader.
func (s SingleVLANHeaderSlice) ToHeader() SingleVLANHeader {
	return SingleVLANHeader{
		PriorityCodePoint:     s.PriorityCodePoint(),
		DropEligibleIndicator: s.DropEligibleIndicator(),
		VLANIdentifier:        s.VLANIdentifier(),
		EtherType:             s.EtherType(),
	}
}

// DoubleVLANHeaderSlice is a read-only view over a serialized double vlan header.
// Unlike ReadDoubleVLANHeader it does not check the outer tag protocol identifier.
type DoubleVLANHeaderSlice struct {
	slice []byte
}

// NewDoubleVLANHeaderSlice binds a view to the first DoubleVLANHeaderLen bytes of b.
func NewDoubleVLANHeaderSlice(b []byte) (DoubleVLANHeaderSlice, error) {
	if len(b) < DoubleVLANHeaderLen {
		return DoubleVLANHeaderSlice{}, &TooShortError{Header: "double vlan header", Required: DoubleVLANHeaderLen, Actual: len(b)}
	}
	return DoubleVLANHeaderSlice{slice: b[:DoubleVLANHeaderLen:DoubleVLANHeaderLen]}, nil
}

// Slice returns the bytes of both tags.
func (s DoubleVLANHeaderSlice) Slice() []byte { return s.slice }

// Outer returns a view over the outer tag.
func (s DoubleVLANHeaderSlice) Outer() SingleVLANHeaderSlice {
	return SingleVLANHeaderSlice{slice: s.slice[:SingleVLANHeaderLen:SingleVLANHeaderLen]}
}

// Inner returns a view over the inner tag.
func (s DoubleVLANHeaderSlice) Inner() SingleVLANHeaderSlice {
	return SingleVLANHeaderSlice{slice: s.slice[SingleVLANHeaderLen:DoubleVLANHeaderLen:DoubleVLANHeaderLen]}
}

// ToHeader decodes both tags into a DoubleVLANHeader.
func (s DoubleVLANHeaderSlice) ToHeader() DoubleVLANHeader {
	return DoubleVLANHeader{
		Outer: s.Outer().ToHeader(),
		Inner: s.Inner().ToHeader(),
	}
}

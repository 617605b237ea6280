// Package core defines sentinel errors.
package core

import (
	"errors"
	"fmt"
	"io"
)

// Sentinel errors.
var (
	// Packet decoding errors
	ErrPacketTooShort = errors.New("vlantag: packet too short")

	// Outer tag of a double vlan header does not carry the tagged frame identifier.
	ErrUnexpectedOuterTPID = errors.New("vlantag: unexpected outer tag protocol identifier")

	// Header encoding errors
	ErrValueTooLarge = errors.New("vlantag: value too large")

	// Configuration errors
	ErrConfigInvalid = errors.New("vlantag: invalid configuration")
)

// ErrorField names the header field a value range error refers to.
type ErrorField int

const (
	FieldPriorityCodePoint ErrorField = iota + 1
	FieldVLANIdentifier
)

func (f ErrorField) String() string {
	switch f {
	case FieldPriorityCodePoint:
		return "priority_code_point"
	case FieldVLANIdentifier:
		return "vlan_identifier"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ValueTooLargeError is returned by the header writers when a field does not fit
// into its bit width.
type ValueTooLargeError struct {
	Field ErrorField
	Value uint64
	Max   uint64
}

func (e *ValueTooLargeError) Error() string {
	return fmt.Sprintf("vlantag: %s value %d exceeds maximum %d", e.Field, e.Value, e.Max)
}

func (e *ValueTooLargeError) Unwrap() error { return ErrValueTooLarge }

// UnexpectedOuterTPIDError carries the ether type found in the outer tag of a
// double vlan header when it is not EtherTypeVLANTaggedFrame.
type UnexpectedOuterTPIDError struct {
	TPID uint16
}

func (e *UnexpectedOuterTPIDError) Error() string {
	return fmt.Sprintf("vlantag: unexpected outer tag protocol identifier 0x%04x in double vlan header", e.TPID)
}

func (e *UnexpectedOuterTPIDError) Unwrap() error { return ErrUnexpectedOuterTPID }

// TooShortError reports a buffer that cannot hold a fixed size header.
// It matches both ErrPacketTooShort and io.ErrUnexpectedEOF.
type TooShortError struct {
	Header   string
	Required int
	Actual   int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("vlantag: %s needs %d bytes, got %d", e.Header, e.Required, e.Actual)
}

func (e *TooShortError) Unwrap() []error {
	return []error{ErrPacketTooShort, io.ErrUnexpectedEOF}
}

func maxCheckU8(value, max uint8, field ErrorField) error {
	if value > max {
		return &ValueTooLargeError{Field: field, Value: uint64(value), Max: uint64(max)}
	}
	return nil
}

func maxCheckU16(value, max uint16, field ErrorField) error {
	if value > max {
		return &ValueTooLargeError{Field: field, Value: uint64(value), Max: uint64(max)}
	}
	return nil
}

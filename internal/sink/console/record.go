package console

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"firestige.xyz/vlantag/internal/core"
)

// TagRecord is the printable form of one vlan tag.
type TagRecord struct {
	Position              string `json:"position" yaml:"position" toml:"position"`
	PriorityCodePoint     uint8  `json:"priority_code_point" yaml:"priority_code_point" toml:"priority_code_point"`
	DropEligibleIndicator bool   `json:"drop_eligible_indicator" yaml:"drop_eligible_indicator" toml:"drop_eligible_indicator"`
	VLANIdentifier        uint16 `json:"vlan_identifier" yaml:"vlan_identifier" toml:"vlan_identifier"`
	EtherType             string `json:"ether_type" yaml:"ether_type" toml:"ether_type"`
}

func newTagRecord(h core.SingleVLANHeader, position string) TagRecord {
	return TagRecord{
		Position:              position,
		PriorityCodePoint:     h.PriorityCodePoint,
		DropEligibleIndicator: h.DropEligibleIndicator,
		VLANIdentifier:        h.VLANIdentifier,
		EtherType:             core.EtherType(h.EtherType).String(),
	}
}

func (r TagRecord) text() string {
	return fmt.Sprintf("%-6s pcp=%d dei=%t vid=%d ether_type=%s",
		r.Position, r.PriorityCodePoint, r.DropEligibleIndicator, r.VLANIdentifier, r.EtherType)
}

func tagRecords(h core.VLANHeader) []TagRecord {
	switch v := h.(type) {
	case core.SingleVLANHeader:
		return []TagRecord{newTagRecord(v, "single")}
	case core.DoubleVLANHeader:
		return []TagRecord{newTagRecord(v.Outer, "outer"), newTagRecord(v.Inner, "inner")}
	default:
		return nil
	}
}

// HeaderRecord is the printable form of a vlan header.
type HeaderRecord struct {
	Kind string      `json:"kind" yaml:"kind" toml:"kind"`
	Wire string      `json:"wire" yaml:"wire" toml:"wire"`
	Tags []TagRecord `json:"tags" yaml:"tags" toml:"tags"`
}

// NewHeaderRecord describes h. wire is the serialized header, it may be nil.
func NewHeaderRecord(h core.VLANHeader, wire []byte) HeaderRecord {
	kind := "single"
	if _, ok := h.(core.DoubleVLANHeader); ok {
		kind = "double"
	}
	return HeaderRecord{
		Kind: kind,
		Wire: fmt.Sprintf("%x", wire),
		Tags: tagRecords(h),
	}
}

func (r HeaderRecord) text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vlan header", r.Kind)
	if r.Wire != "" {
		fmt.Fprintf(&sb, " [%s]", r.Wire)
	}
	sb.WriteByte('\n')
	for _, t := range r.Tags {
		sb.WriteString("  ")
		sb.WriteString(t.text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FrameRecord is the printable form of a decoded frame.
type FrameRecord struct {
	DstMAC     string      `json:"dst_mac" yaml:"dst_mac" toml:"dst_mac"`
	SrcMAC     string      `json:"src_mac" yaml:"src_mac" toml:"src_mac"`
	Tagging    string      `json:"tagging" yaml:"tagging" toml:"tagging"`
	EtherType  string      `json:"ether_type" yaml:"ether_type" toml:"ether_type"`
	Tags       []TagRecord `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	PayloadLen int         `json:"payload_len" yaml:"payload_len" toml:"payload_len"`
}

// NewFrameRecord describes a decoded frame.
func NewFrameRecord(p core.DecodedPacket) FrameRecord {
	return FrameRecord{
		DstMAC:     net.HardwareAddr(p.Ethernet.DstMAC[:]).String(),
		SrcMAC:     net.HardwareAddr(p.Ethernet.SrcMAC[:]).String(),
		Tagging:    p.Ethernet.Tagging().String(),
		EtherType:  core.EtherType(p.Ethernet.EtherType).String(),
		Tags:       tagRecords(p.Ethernet.VLAN),
		PayloadLen: len(p.Payload),
	}
}

func (r FrameRecord) text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s > %s %s ether_type=%s payload=%d\n", r.SrcMAC, r.DstMAC, r.Tagging, r.EtherType, r.PayloadLen)
	for _, t := range r.Tags {
		sb.WriteString("  ")
		sb.WriteString(t.text())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// VLANCount is the number of frames seen on one vlan.
type VLANCount struct {
	VLANIdentifier uint16 `json:"vlan_identifier" yaml:"vlan_identifier" toml:"vlan_identifier"`
	Frames         uint64 `json:"frames" yaml:"frames" toml:"frames"`
}

// SummaryRecord aggregates an inspected capture.
type SummaryRecord struct {
	Source       string      `json:"source" yaml:"source" toml:"source"`
	Frames       uint64      `json:"frames" yaml:"frames" toml:"frames"`
	Untagged     uint64      `json:"untagged" yaml:"untagged" toml:"untagged"`
	SingleTagged uint64      `json:"single_tagged" yaml:"single_tagged" toml:"single_tagged"`
	DoubleTagged uint64      `json:"double_tagged" yaml:"double_tagged" toml:"double_tagged"`
	Errors       uint64      `json:"errors" yaml:"errors" toml:"errors"`
	VLANs        []VLANCount `json:"vlans" yaml:"vlans" toml:"vlans"`
}

// SetVLANs fills VLANs from a vid to frame count map, ordered by vid.
func (r *SummaryRecord) SetVLANs(counts map[uint16]uint64) {
	r.VLANs = make([]VLANCount, 0, len(counts))
	for vid, n := range counts {
		r.VLANs = append(r.VLANs, VLANCount{VLANIdentifier: vid, Frames: n})
	}
	sort.Slice(r.VLANs, func(i, j int) bool { return r.VLANs[i].VLANIdentifier < r.VLANs[j].VLANIdentifier })
}

func (r SummaryRecord) text() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "source:        %s\n", r.Source)
	fmt.Fprintf(&sb, "frames:        %d\n", r.Frames)
	fmt.Fprintf(&sb, "untagged:      %d\n", r.Untagged)
	fmt.Fprintf(&sb, "single tagged: %d\n", r.SingleTagged)
	fmt.Fprintf(&sb, "double tagged: %d\n", r.DoubleTagged)
	fmt.Fprintf(&sb, "errors:        %d\n", r.Errors)
	for _, v := range r.VLANs {
		fmt.Fprintf(&sb, "  vid %-4d %d\n", v.VLANIdentifier, v.Frames)
	}
	return sb.String()
}

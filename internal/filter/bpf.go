// Package filter compiles vlan membership into classic BPF programs.
package filter

import (
	"fmt"
	"strings"

	"golang.org/x/net/bpf"

	"firestige.xyz/vlantag/internal/core"
)

const (
	// DefaultSnapLen is the accept length of compiled programs.
	DefaultSnapLen = 65535

	etherTypeOffset = 12
	outerTCIOffset  = 14
	innerTPIDOffset = 16
	innerTCIOffset  = 18
)

// VLANMatch selects frames by vlan identifier.
type VLANMatch struct {
	// VID of the outer (or only) tag.
	VID uint16

	// InnerVID, when set, requires a second tag with this identifier.
	InnerVID *uint16

	// TPIDs accepted in front of each tag. Empty means the defaults.
	TPIDs []uint16

	// SnapLen is returned for matching frames. Zero means DefaultSnapLen.
	SnapLen uint32
}

// Instructions returns the program matching m.
func (m VLANMatch) Instructions() ([]bpf.Instruction, error) {
	if err := checkVID(m.VID); err != nil {
		return nil, err
	}
	tpids := m.TPIDs
	if len(tpids) == 0 {
		for _, t := range core.DefaultTagProtocolIdentifiers() {
			tpids = append(tpids, uint16(t))
		}
	}
	// jump offsets are 8 bit
	if len(tpids) > 32 {
		return nil, fmt.Errorf("too many tag protocol identifiers: %d", len(tpids))
	}
	snapLen := m.SnapLen
	if snapLen == 0 {
		snapLen = DefaultSnapLen
	}

	insns := matchTPID(etherTypeOffset, tpids)
	insns = append(insns, matchVID(outerTCIOffset, m.VID)...)
	if m.InnerVID != nil {
		if err := checkVID(*m.InnerVID); err != nil {
			return nil, err
		}
		insns = append(insns, matchTPID(innerTPIDOffset, tpids)...)
		insns = append(insns, matchVID(innerTCIOffset, *m.InnerVID)...)
	}
	return append(insns, &bpf.RetConstant{Val: snapLen}), nil
}

// CompileVLANFilter assembles the program matching m.
func CompileVLANFilter(m VLANMatch) ([]bpf.RawInstruction, error) {
	insns, err := m.Instructions()
	if err != nil {
		return nil, err
	}
	return bpf.Assemble(insns)
}

func checkVID(vid uint16) error {
	return core.SingleVLANHeader{VLANIdentifier: vid}.Validate()
}

// matchTPID loads the ether type at off and falls through when it is one of
// tpids, otherwise the frame is dropped.
func matchTPID(off uint32, tpids []uint16) []bpf.Instruction {
	insns := []bpf.Instruction{&bpf.LoadAbsolute{Off: off, Size: 2}}
	for i, tpid := range tpids {
		insns = append(insns, &bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(tpid), SkipTrue: uint8(len(tpids) - i)})
	}
	return append(insns, &bpf.RetConstant{Val: 0})
}

// matchVID loads the tag control information at off and falls through when
// its identifier equals vid, otherwise the frame is dropped.
func matchVID(off uint32, vid uint16) []bpf.Instruction {
	return []bpf.Instruction{
		&bpf.LoadAbsolute{Off: off, Size: 2},
		&bpf.ALUOpConstant{Op: bpf.ALUOpAnd, Val: core.MaxVLANIdentifier},
		&bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(vid), SkipTrue: 1},
		&bpf.RetConstant{Val: 0},
	}
}

// FormatRaw renders raw instructions the way tcpdump -dd does.
func FormatRaw(raw []bpf.RawInstruction) string {
	var sb strings.Builder
	for _, ins := range raw {
		fmt.Fprintf(&sb, "{ 0x%x, %d, %d, 0x%08x },\n", ins.Op, ins.Jt, ins.Jf, ins.K)
	}
	return sb.String()
}

// FormatAsm renders instructions one per line in assembler syntax.
func FormatAsm(insns []bpf.Instruction) string {
	var sb strings.Builder
	for i, ins := range insns {
		fmt.Fprintf(&sb, "(%03d) %s\n", i, ins)
	}
	return sb.String()
}

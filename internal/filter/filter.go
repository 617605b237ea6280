package filter

import (
	"golang.org/x/net/bpf"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/log"
)

// Filter passes a frame on to chain or drops it by returning early.
type Filter interface {
	Filter(p *core.RawPacket, chain Chain)
}

// Chain hands a frame to the next filter.
type Chain interface {
	Filter(p *core.RawPacket)
}

type CounterFilter struct {
	count uint64
}

func (f *CounterFilter) Filter(p *core.RawPacket, chain Chain) {
	f.count++
	chain.Filter(p)
}

func NewCounterFilter() *CounterFilter {
	return &CounterFilter{count: 0}
}

func (f *CounterFilter) GetCount() uint64 {
	return f.count
}

// BPFFilter runs a classic BPF program over each frame in userspace and
// drops frames the program rejects.
type BPFFilter struct {
	vm      *bpf.VM
	dropped uint64
}

// NewBPFFilter loads insns into a BPF virtual machine.
func NewBPFFilter(insns []bpf.Instruction) (*BPFFilter, error) {
	vm, err := bpf.NewVM(insns)
	if err != nil {
		return nil, err
	}
	return &BPFFilter{vm: vm}, nil
}

// NewVLANFilter builds a BPFFilter from the program matching m.
func NewVLANFilter(m VLANMatch) (*BPFFilter, error) {
	insns, err := m.Instructions()
	if err != nil {
		return nil, err
	}
	return NewBPFFilter(insns)
}

func (f *BPFFilter) Filter(p *core.RawPacket, chain Chain) {
	n, err := f.vm.Run(p.Data)
	if err != nil {
		log.GetLogger().WithError(err).Debug("bpf program failed")
	}
	if err != nil || n == 0 {
		f.dropped++
		return
	}
	chain.Filter(p)
}

// Dropped returns the number of rejected frames.
func (f *BPFFilter) Dropped() uint64 {
	return f.dropped
}

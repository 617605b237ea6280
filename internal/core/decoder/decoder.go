package decoder

import (
	"sync/atomic"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/log"
)

// Decoder decodes raw frames into structured format.
type Decoder interface {
	Decode(raw core.RawPacket) (core.DecodedPacket, error)
}

// Config configures a StandardDecoder.
type Config struct {
	// TagProtocolIdentifiers lists the ether types that introduce a vlan tag.
	// Empty means 0x8100, 0x88A8 and 0x9100.
	TagProtocolIdentifiers []uint16
}

// Stats is a snapshot of decoder counters.
type Stats struct {
	Frames       uint64
	Untagged     uint64
	SingleTagged uint64
	DoubleTagged uint64
	Errors       uint64
}

type statistics struct {
	frames       uint64
	untagged     uint64
	singleTagged uint64
	doubleTagged uint64
	errors       uint64
}

// StandardDecoder decodes Ethernet II frames with up to two vlan tags.
// It is safe for concurrent use.
type StandardDecoder struct {
	tpids tpidSet
	statistics
}

// NewStandardDecoder creates a decoder.
func NewStandardDecoder(cfg Config) *StandardDecoder {
	return &StandardDecoder{
		tpids: newTPIDSet(cfg.TagProtocolIdentifiers),
	}
}

// Decode decodes the ethernet header and vlan tags of raw.
// The payload of the result references raw.Data.
func (d *StandardDecoder) Decode(raw core.RawPacket) (core.DecodedPacket, error) {
	atomic.AddUint64(&d.frames, 1)

	eth, payload, err := decodeEthernet(raw.Data, d.tpids)
	if err != nil {
		atomic.AddUint64(&d.errors, 1)
		if l := log.GetLogger(); l.IsDebugEnabled() {
			l.WithError(err).WithField("len", len(raw.Data)).Debug("malformed frame")
		}
		return core.DecodedPacket{}, err
	}

	switch eth.Tagging() {
	case core.SingleTagged:
		atomic.AddUint64(&d.singleTagged, 1)
	case core.DoubleTagged:
		atomic.AddUint64(&d.doubleTagged, 1)
	default:
		atomic.AddUint64(&d.untagged, 1)
	}

	return core.DecodedPacket{
		Timestamp:  raw.Timestamp,
		Ethernet:   eth,
		Payload:    payload,
		CaptureLen: raw.CaptureLen,
		OrigLen:    raw.OrigLen,
	}, nil
}

// Stats returns the current counters.
func (d *StandardDecoder) Stats() Stats {
	return Stats{
		Frames:       atomic.LoadUint64(&d.frames),
		Untagged:     atomic.LoadUint64(&d.untagged),
		SingleTagged: atomic.LoadUint64(&d.singleTagged),
		DoubleTagged: atomic.LoadUint64(&d.doubleTagged),
		Errors:       atomic.LoadUint64(&d.errors),
	}
}

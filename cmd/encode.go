package cmd

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/config"
	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/core/encoder"
	"firestige.xyz/vlantag/internal/sink/console"
	"firestige.xyz/vlantag/internal/source/file"
)

// tagFlags holds the fields of one tag given on the command line.
type tagFlags struct {
	vid       uint16
	pcp       uint8
	dei       bool
	etherType string
}

func (f tagFlags) header() (core.SingleVLANHeader, error) {
	etherType, err := config.ParseUint16(f.etherType)
	if err != nil {
		return core.SingleVLANHeader{}, fmt.Errorf("ether type: %w", err)
	}
	return core.SingleVLANHeader{
		PriorityCodePoint:     f.pcp,
		DropEligibleIndicator: f.dei,
		VLANIdentifier:        f.vid,
		EtherType:             etherType,
	}, nil
}

type encodeOptions struct {
	outer  tagFlags
	inner  tagFlags
	double bool

	profiles string
	profile  string

	frame   bool
	tpid    string
	dst     string
	src     string
	payload string
	pcap    string

	format string
}

var encodeOpts encodeOptions

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a vlan header",
	Long: `Encode a single or double vlan header, or an Ethernet frame carrying it.

The tag fields come from flags, or from a named profile in a profile file.
The header is validated before anything is written: the priority code point
must not exceed 7 and the vlan identifier must not exceed 4095.

Examples:
  vlantag encode --vid 1234 --pcp 2 --dei --ether-type 0x0800
  vlantag encode --vid 100 --ether-type 0x8100 --inner-vid 200 --inner-ether-type 0x0800
  vlantag encode --profiles profiles.yaml --profile carrier --frame --payload 45000014
  vlantag encode --vid 10 --frame --pcap tagged.pcap.gz`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := encodeOpts
		opts.double = cmd.Flags().Changed("inner-vid")
		opts.format = globalConfig.Output
		if opts.profiles == "" {
			opts.profiles = globalConfig.Profiles
		}
		return runEncode(opts, cmd.OutOrStdout())
	},
}

func init() {
	f := encodeCmd.Flags()
	f.Uint16Var(&encodeOpts.outer.vid, "vid", 0, "vlan identifier (0-4095), outer tag when double")
	f.Uint8Var(&encodeOpts.outer.pcp, "pcp", 0, "priority code point (0-7)")
	f.BoolVar(&encodeOpts.outer.dei, "dei", false, "drop eligible indicator")
	f.StringVar(&encodeOpts.outer.etherType, "ether-type", "0x0800", "ether type following the tag")

	f.Uint16Var(&encodeOpts.inner.vid, "inner-vid", 0, "inner vlan identifier, makes a double header")
	f.Uint8Var(&encodeOpts.inner.pcp, "inner-pcp", 0, "inner priority code point")
	f.BoolVar(&encodeOpts.inner.dei, "inner-dei", false, "inner drop eligible indicator")
	f.StringVar(&encodeOpts.inner.etherType, "inner-ether-type", "0x0800", "ether type following the inner tag")

	f.StringVar(&encodeOpts.profiles, "profiles", "", "tag profile file")
	f.StringVar(&encodeOpts.profile, "profile", "", "profile name to encode")

	f.BoolVar(&encodeOpts.frame, "frame", false, "encode a whole Ethernet frame")
	f.StringVar(&encodeOpts.tpid, "tpid", "", "ether type before the first tag (default 0x8100, 0x88a8 for double)")
	f.StringVar(&encodeOpts.dst, "dst", "ff:ff:ff:ff:ff:ff", "frame destination mac")
	f.StringVar(&encodeOpts.src, "src", "00:00:00:00:00:00", "frame source mac")
	f.StringVar(&encodeOpts.payload, "payload", "", "frame payload as hex")
	f.StringVar(&encodeOpts.pcap, "pcap", "", "also write the frame to a capture file (.pcap, .pcap.gz, .pcap.zst)")
}

// buildHeader returns the header selected by a profile or by the tag flags.
func (o encodeOptions) buildHeader() (core.VLANHeader, uint16, error) {
	if o.profile != "" {
		if o.profiles == "" {
			return nil, 0, fmt.Errorf("--profile requires a profile file (--profiles or vlantag.profiles)")
		}
		ps, err := config.LoadProfiles(o.profiles)
		if err != nil {
			return nil, 0, err
		}
		p, err := ps.Lookup(o.profile)
		if err != nil {
			return nil, 0, err
		}
		h, err := p.Header()
		return h, p.TPID, err
	}

	outer, err := o.outer.header()
	if err != nil {
		return nil, 0, err
	}
	if !o.double {
		return outer, 0, nil
	}
	inner, err := o.inner.header()
	if err != nil {
		return nil, 0, err
	}
	return core.DoubleVLANHeader{Outer: outer, Inner: inner}, 0, nil
}

func (o encodeOptions) buildFrame(h core.VLANHeader, profileTPID uint16) ([]byte, error) {
	f := encoder.Frame{VLAN: h, TPID: profileTPID}

	var err error
	if o.tpid != "" {
		if f.TPID, err = config.ParseUint16(o.tpid); err != nil {
			return nil, fmt.Errorf("tpid: %w", err)
		}
	}
	if f.DstMAC, err = net.ParseMAC(o.dst); err != nil {
		return nil, err
	}
	if f.SrcMAC, err = net.ParseMAC(o.src); err != nil {
		return nil, err
	}
	if o.payload != "" {
		if f.Payload, err = parseHex([]string{o.payload}); err != nil {
			return nil, err
		}
	}
	return encoder.BuildFrame(f)
}

func runEncode(opts encodeOptions, w io.Writer) error {
	h, profileTPID, err := opts.buildHeader()
	if err != nil {
		return err
	}

	wire, err := h.AppendBinary(nil)
	if err != nil {
		return err
	}

	if opts.frame || opts.pcap != "" {
		wire, err = opts.buildFrame(h, profileTPID)
		if err != nil {
			return err
		}
		if opts.pcap != "" {
			if err := writeCapture(opts.pcap, wire); err != nil {
				return err
			}
		}
	}

	if opts.format == "" || opts.format == console.FormatText {
		_, err = fmt.Fprintf(w, "%x\n", wire)
		return err
	}
	s, err := console.NewSink(w, opts.format)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Send(console.NewHeaderRecord(h, wire))
}

func writeCapture(path string, frame []byte) error {
	pw, err := file.Create(path)
	if err != nil {
		return err
	}
	if err := pw.WriteFrame(time.Now(), frame); err != nil {
		pw.Close()
		return err
	}
	return pw.Close()
}

package cmd

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/core/decoder"
	"firestige.xyz/vlantag/internal/log"
	"firestige.xyz/vlantag/internal/sink/console"
)

type decodeOptions struct {
	double bool
	view   bool
	frame  bool
	tpids  []uint16
	format string
}

var decodeOpts decodeOptions

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode a vlan header or an Ethernet frame from hex",
	Long: `Decode a single vlan header (default), a double vlan header (--double) or a
whole Ethernet frame (--frame) given as hex. Spaces and colons are ignored.

The default read path requires the outer tag of a double header to carry the
0x8100 ether type. --view decodes through the zero-copy views, which accept
any ether type.

Examples:
  vlantag decode 44d20800
  vlantag decode --double a0648100 30c80800 -o json
  vlantag decode --frame ffffffffffff000000000000810000640800`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := parseHex(args)
		if err != nil {
			return err
		}
		opts := decodeOpts
		opts.format = globalConfig.Output
		opts.tpids = globalConfig.Decoder.TPIDs()
		return runDecode(opts, data, cmd.OutOrStdout())
	},
}

func init() {
	decodeCmd.Flags().BoolVar(&decodeOpts.double, "double", false, "decode a double (Q-in-Q) header")
	decodeCmd.Flags().BoolVar(&decodeOpts.view, "view", false, "decode through the zero-copy views")
	decodeCmd.Flags().BoolVar(&decodeOpts.frame, "frame", false, "decode a whole Ethernet frame")
}

func runDecode(opts decodeOptions, data []byte, w io.Writer) error {
	s, err := console.NewSink(w, opts.format)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.frame {
		d := decoder.NewStandardDecoder(decoder.Config{TagProtocolIdentifiers: opts.tpids})
		p, err := d.Decode(core.RawPacket{Data: data, CaptureLen: uint32(len(data)), OrigLen: uint32(len(data))})
		if err != nil {
			return err
		}
		log.GetLogger().WithFields(p.Ethernet.Labels().Fields()).Debug("frame decoded")
		return s.Send(console.NewFrameRecord(p))
	}

	h, n, err := decodeHeader(opts, data)
	if err != nil {
		return err
	}
	if n < len(data) {
		log.GetLogger().WithField("trailing", len(data)-n).Warn("ignoring bytes after the vlan header")
	}
	log.GetLogger().WithFields(h.Labels().Fields()).Debug("header decoded")
	return s.Send(console.NewHeaderRecord(h, data[:n]))
}

// decodeHeader returns the header at the start of data and its length.
func decodeHeader(opts decodeOptions, data []byte) (core.VLANHeader, int, error) {
	switch {
	case opts.view && opts.double:
		v, err := core.NewDoubleVLANHeaderSlice(data)
		if err != nil {
			return nil, 0, err
		}
		return v.ToHeader(), core.DoubleVLANHeaderLen, nil
	case opts.view:
		v, err := core.NewSingleVLANHeaderSlice(data)
		if err != nil {
			return nil, 0, err
		}
		return v.ToHeader(), core.SingleVLANHeaderLen, nil
	case opts.double:
		h, err := core.ReadDoubleVLANHeader(bytes.NewReader(data))
		if err != nil {
			return nil, 0, fmt.Errorf("double vlan header: %w", err)
		}
		return h, core.DoubleVLANHeaderLen, nil
	default:
		h, err := core.ReadSingleVLANHeader(bytes.NewReader(data))
		if err != nil {
			return nil, 0, fmt.Errorf("single vlan header: %w", err)
		}
		return h, core.SingleVLANHeaderLen, nil
	}
}

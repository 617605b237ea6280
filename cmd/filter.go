package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/config"
	"firestige.xyz/vlantag/internal/filter"
)

type filterOptions struct {
	vid      uint16
	innerVID uint16
	inner    bool
	tpids    []string
	snapLen  uint32
	asm      bool
}

var filterOpts filterOptions

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Compile a vlan match into a classic BPF program",
	Long: `Compile a vlan match into a classic BPF program and print it in
tcpdump -dd style (or as assembler with --asm).

Examples:
  vlantag filter --vid 100
  vlantag filter --vid 100 --inner-vid 200 --tpid 0x88a8 --tpid 0x8100
  vlantag filter --vid 10 --asm`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := filterOpts
		opts.inner = cmd.Flags().Changed("inner-vid")
		if len(opts.tpids) == 0 {
			opts.tpids = globalConfig.Decoder.TagProtocolIdentifiers
		}
		return runFilter(opts, cmd.OutOrStdout())
	},
}

func init() {
	f := filterCmd.Flags()
	f.Uint16Var(&filterOpts.vid, "vid", 0, "vlan identifier of the outer (or only) tag")
	f.Uint16Var(&filterOpts.innerVID, "inner-vid", 0, "vlan identifier of the inner tag")
	f.StringSliceVar(&filterOpts.tpids, "tpid", nil, "accepted tag protocol identifier, repeatable (default decoder.tag_protocol_identifiers)")
	f.Uint32Var(&filterOpts.snapLen, "snaplen", filter.DefaultSnapLen, "bytes accepted per matching frame")
	f.BoolVar(&filterOpts.asm, "asm", false, "print assembler instead of raw instructions")
	filterCmd.MarkFlagRequired("vid")
}

func (o filterOptions) match() (filter.VLANMatch, error) {
	m := filter.VLANMatch{VID: o.vid, SnapLen: o.snapLen}
	if o.inner {
		inner := o.innerVID
		m.InnerVID = &inner
	}
	for _, s := range o.tpids {
		tpid, err := config.ParseUint16(s)
		if err != nil {
			return m, fmt.Errorf("tpid: %w", err)
		}
		m.TPIDs = append(m.TPIDs, tpid)
	}
	return m, nil
}

func runFilter(opts filterOptions, w io.Writer) error {
	m, err := opts.match()
	if err != nil {
		return err
	}
	if opts.asm {
		insns, err := m.Instructions()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, filter.FormatAsm(insns))
		return err
	}
	raw, err := filter.CompileVLANFilter(m)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, filter.FormatRaw(raw))
	return err
}

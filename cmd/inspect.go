package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/gopacket/layers"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/core/decoder"
	"firestige.xyz/vlantag/internal/filter"
	"firestige.xyz/vlantag/internal/log"
	"firestige.xyz/vlantag/internal/metrics"
	"firestige.xyz/vlantag/internal/sink/console"
	"firestige.xyz/vlantag/internal/source/file"
)

// frameSource yields captured frames until io.EOF.
type frameSource interface {
	Next() (core.RawPacket, error)
}

type inspectOptions struct {
	file          string
	maxFrames     int
	printFrames   bool
	metricsOut    string
	metricsListen string
	metricsPath   string

	match *filter.VLANMatch

	tpids  []uint16
	format string
}

var (
	inspectOpts     inspectOptions
	inspectVID      uint16
	inspectInnerVID uint16
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Count vlan tagging in a capture file",
	Long: `Decode every frame of a pcap or pcapng capture, optionally gzip or zstd
compressed, and report untagged, single and double tagged totals, per vlan
counts and decode errors.

--vid and --inner-vid select frames with the same BPF program "vlantag filter"
prints. Counters can be written in Prometheus text format (--metrics-out) or
served over HTTP until interrupted (--metrics-listen).

Examples:
  vlantag inspect -r trunk.pcap
  vlantag inspect -r trunk.pcapng.zst --vid 100 --print-frames
  vlantag inspect -r trunk.pcap.gz --metrics-out /var/lib/node_exporter/vlantag.prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := inspectOpts
		opts.format = globalConfig.Output
		opts.tpids = globalConfig.Decoder.TPIDs()
		f := cmd.Flags()
		if !f.Changed("max-frames") {
			opts.maxFrames = globalConfig.Inspect.MaxFrames
		}
		if !f.Changed("print-frames") {
			opts.printFrames = globalConfig.Inspect.PrintFrames
		}
		if opts.metricsOut == "" {
			opts.metricsOut = globalConfig.Inspect.MetricsOut
		}
		if opts.metricsListen == "" {
			opts.metricsListen = globalConfig.Inspect.MetricsListen
		}
		opts.metricsPath = globalConfig.Inspect.MetricsPath
		if f.Changed("vid") {
			opts.match = &filter.VLANMatch{VID: inspectVID, TPIDs: opts.tpids}
			if f.Changed("inner-vid") {
				inner := inspectInnerVID
				opts.match.InnerVID = &inner
			}
		} else if f.Changed("inner-vid") {
			return fmt.Errorf("--inner-vid requires --vid")
		}

		src, err := file.NewSource(&file.FileCfg{FilePath: opts.file})
		if err != nil {
			return err
		}
		if err := src.Start(cmd.Context()); err != nil {
			return err
		}
		defer src.Stop()
		if lt := src.LinkType(); lt != layers.LinkTypeEthernet {
			log.GetLogger().WithField("link_type", lt.String()).Warn("capture is not Ethernet, frames will fail to decode")
		}

		return runInspect(cmd.Context(), src, opts, cmd.OutOrStdout())
	},
}

func init() {
	f := inspectCmd.Flags()
	f.StringVarP(&inspectOpts.file, "read", "r", "", "capture file to read (.pcap, .pcapng, optionally .gz or .zst)")
	f.IntVar(&inspectOpts.maxFrames, "max-frames", 0, "stop after this many frames (0 reads all)")
	f.BoolVar(&inspectOpts.printFrames, "print-frames", false, "print every decoded frame")
	f.StringVar(&inspectOpts.metricsOut, "metrics-out", "", "write metrics in Prometheus text format to this file")
	f.StringVar(&inspectOpts.metricsListen, "metrics-listen", "", "serve metrics on this address until interrupted")
	f.Uint16Var(&inspectVID, "vid", 0, "only count frames whose outer tag has this vlan identifier")
	f.Uint16Var(&inspectInnerVID, "inner-vid", 0, "only count frames whose inner tag has this vlan identifier")
	inspectCmd.MarkFlagRequired("read")
}

func runInspect(ctx context.Context, src frameSource, opts inspectOptions, w io.Writer) error {
	s, err := console.NewSink(w, opts.format)
	if err != nil {
		return err
	}
	defer s.Close()

	counter := filter.NewCounterFilter()
	filters := []filter.Filter{counter}
	var vlanFilter *filter.BPFFilter
	if opts.match != nil {
		if vlanFilter, err = filter.NewVLANFilter(*opts.match); err != nil {
			return err
		}
		filters = append(filters, vlanFilter)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewInspectMetrics(reg)
	d := decoder.NewStandardDecoder(decoder.Config{TagProtocolIdentifiers: opts.tpids})
	vlans := make(map[uint16]uint64)

	var sendErr error
	chain := filter.NewFilterChain(func(raw *core.RawPacket) {
		p, err := d.Decode(*raw)
		if err != nil {
			m.ObserveError(err)
			return
		}
		m.Observe(p)
		for _, vid := range p.Ethernet.VLANIDs() {
			vlans[vid]++
		}
		if opts.printFrames {
			sendErr = s.Send(console.NewFrameRecord(p))
		}
	}, filters)

	for opts.maxFrames <= 0 || counter.GetCount() < uint64(opts.maxFrames) {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		chain.Filter(&raw)
		if sendErr != nil {
			return sendErr
		}
	}

	var skipped uint64
	if vlanFilter != nil {
		skipped = vlanFilter.Dropped()
	}
	stats := d.Stats()
	log.GetLogger().WithFields(map[string]interface{}{
		"read":    counter.GetCount(),
		"skipped": skipped,
		"decoded": stats.Frames - stats.Errors,
	}).Info("capture inspected")

	summary := console.SummaryRecord{
		Source:       opts.file,
		Frames:       stats.Frames,
		Untagged:     stats.Untagged,
		SingleTagged: stats.SingleTagged,
		DoubleTagged: stats.DoubleTagged,
		Errors:       stats.Errors,
	}
	summary.SetVLANs(vlans)
	if err := s.Send(summary); err != nil {
		return err
	}

	if opts.metricsOut != "" {
		if err := metrics.WriteTextfile(reg, opts.metricsOut); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if opts.metricsListen != "" {
		return serveMetrics(ctx, metrics.NewServer(opts.metricsListen, opts.metricsPath, reg))
	}
	return nil
}

// serveMetrics exposes the final counters until ctx is cancelled.
func serveMetrics(ctx context.Context, srv *metrics.Server) error {
	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return srv.Stop(context.Background())
}

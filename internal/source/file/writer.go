package file

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultSnapLen is written to the pcap file header.
const DefaultSnapLen = 65535

// Compression selects the stream wrapping of a written capture.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// CompressionFor infers the compression from a file name extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// Writer writes Ethernet frames to a pcap stream.
type Writer struct {
	buf     *bufio.Writer
	pcap    *pcapgo.Writer
	closers []func() error
}

// NewWriter writes a pcap file header to w and returns a writer for frames.
// Close must be called to flush compressed output; it does not close w.
func NewWriter(w io.Writer, c Compression, snapLen uint32) (*Writer, error) {
	pw := &Writer{}

	switch c {
	case CompressionNone:
	case CompressionGzip:
		zw := gzip.NewWriter(w)
		pw.closers = append(pw.closers, zw.Close)
		w = zw
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, err
		}
		pw.closers = append(pw.closers, zw.Close)
		w = zw
	default:
		return nil, fmt.Errorf("unknown compression %q", c)
	}

	pw.buf = bufio.NewWriter(w)
	pw.pcap = pcapgo.NewWriter(pw.buf)
	if snapLen == 0 {
		snapLen = DefaultSnapLen
	}
	if err := pw.pcap.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, err
	}
	return pw, nil
}

// WriteFrame appends one frame captured at ts.
func (w *Writer) WriteFrame(ts time.Time, data []byte) error {
	return w.pcap.WritePacket(gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}, data)
}

// Close flushes buffered and compressed output.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			return err
		}
	}
	w.closers = nil
	return nil
}

// FileWriter is a Writer owning its output file.
type FileWriter struct {
	*Writer
	file *os.File
}

// Create creates path and writes a capture to it, compressed according to
// the file extension.
func Create(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := NewWriter(f, CompressionFor(path), DefaultSnapLen)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileWriter{Writer: w, file: f}, nil
}

// Close flushes the capture and closes the file.
func (w *FileWriter) Close() error {
	if err := w.Writer.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// Package file reads and writes pcap and pcapng captures, optionally gzip or
// zstd compressed.
package file

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/log"
)

var (
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}
)

// ErrNotStarted is returned when reading from a source that is not started.
var ErrNotStarted = errors.New("file source not started")

type FileCfg struct {
	FilePath string `mapstructure:"file_path"`
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

type FileSource struct {
	path    string
	file    *os.File
	closers []func() error
	reader  packetReader
}

func NewSource(cfg *FileCfg) (*FileSource, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("file_path is required")
	}
	return &FileSource{
		path: cfg.FilePath,
	}, nil
}

// Start opens the capture and detects its compression and format.
func (fs *FileSource) Start(ctx context.Context) error {
	f, err := os.Open(fs.path)
	if err != nil {
		return fmt.Errorf("failed to open capture file %s: %w", fs.path, err)
	}
	fs.file = f

	r, err := fs.decompress(bufio.NewReader(f))
	if err != nil {
		_ = fs.Stop()
		return fmt.Errorf("failed to open capture file %s: %w", fs.path, err)
	}

	magic, err := r.Peek(len(pcapngMagic))
	if err != nil {
		_ = fs.Stop()
		return fmt.Errorf("failed to read capture header %s: %w", fs.path, err)
	}
	if bytes.Equal(magic, pcapngMagic) {
		fs.reader, err = pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
	} else {
		fs.reader, err = pcapgo.NewReader(r)
	}
	if err != nil {
		_ = fs.Stop()
		return fmt.Errorf("failed to parse capture file %s: %w", fs.path, err)
	}

	log.GetLogger().WithFields(map[string]interface{}{
		"path":      fs.path,
		"link_type": fs.reader.LinkType().String(),
	}).Debug("capture file opened")
	return nil
}

func (fs *FileSource) decompress(r *bufio.Reader) (*bufio.Reader, error) {
	magic, err := r.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		fs.closers = append(fs.closers, zr.Close)
		return bufio.NewReader(zr), nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		fs.closers = append(fs.closers, func() error {
			zr.Close()
			return nil
		})
		return bufio.NewReader(zr), nil
	default:
		return r, nil
	}
}

// ReadPacket returns the next frame. It returns io.EOF at the end of the capture.
func (fs *FileSource) ReadPacket() ([]byte, gopacket.CaptureInfo, error) {
	if fs.reader == nil {
		return nil, gopacket.CaptureInfo{}, ErrNotStarted
	}

	// Read the next packet from the file
	data, ci, err := fs.reader.ReadPacketData()
	if err != nil {
		// Return EOF or other errors
		if err == io.EOF {
			return nil, gopacket.CaptureInfo{}, io.EOF
		}
		return nil, gopacket.CaptureInfo{}, fmt.Errorf("failed to read packet: %w", err)
	}

	return data, ci, nil
}

// Next returns the next frame as a raw packet.
func (fs *FileSource) Next() (core.RawPacket, error) {
	data, ci, err := fs.ReadPacket()
	if err != nil {
		return core.RawPacket{}, err
	}
	return core.RawPacket{
		Data:       data,
		Timestamp:  ci.Timestamp,
		CaptureLen: uint32(ci.CaptureLength),
		OrigLen:    uint32(ci.Length),
	}, nil
}

func (fs *FileSource) LinkType() layers.LinkType {
	if fs.reader == nil {
		return layers.LinkTypeEthernet // default
	}
	return fs.reader.LinkType()
}

func (fs *FileSource) Stop() error {
	var errs []error
	for i := len(fs.closers) - 1; i >= 0; i-- {
		errs = append(errs, fs.closers[i]())
	}
	fs.closers = nil
	if fs.file != nil {
		errs = append(errs, fs.file.Close())
		fs.file = nil
	}
	fs.reader = nil
	return errors.Join(errs...)
}

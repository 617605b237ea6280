package file

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var frames = [][]byte{
	{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x81, 0x00, 0x54, 0xD2, 0x08, 0x00,
		0x45, 0x00,
	},
	{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
		0x08, 0x06,
	},
}

func writeCapture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	w, err := Create(path)
	require.NoError(t, err)
	ts := time.Unix(1700000000, 0)
	for i, f := range frames {
		require.NoError(t, w.WriteFrame(ts.Add(time.Duration(i)*time.Second), f))
	}
	require.NoError(t, w.Close())
	return path
}

func readAll(t *testing.T, path string) [][]byte {
	t.Helper()
	src, err := NewSource(&FileCfg{FilePath: path})
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	assert.Equal(t, layers.LinkTypeEthernet, src.LinkType())

	var out [][]byte
	for {
		raw, err := src.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		assert.Equal(t, uint32(len(raw.Data)), raw.CaptureLen)
		out = append(out, append([]byte(nil), raw.Data...))
	}
}

func TestRoundTrip(t *testing.T) {
	for _, name := range []string{"plain.pcap", "compressed.pcap.gz", "compressed.pcap.zst"} {
		t.Run(name, func(t *testing.T) {
			path := writeCapture(t, name)
			assert.Equal(t, frames, readAll(t, path))
		})
	}
}

func TestCompressedFilesAreNotPlainPcap(t *testing.T) {
	plain, err := os.ReadFile(writeCapture(t, "a.pcap"))
	require.NoError(t, err)
	gz, err := os.ReadFile(writeCapture(t, "a.pcap.gz"))
	require.NoError(t, err)
	assert.Equal(t, gzipMagic, gz[:2])
	assert.NotEqual(t, plain[:4], gz[:4])
}

func TestReadPcapng(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	require.NoError(t, err)
	for _, frame := range frames {
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Now(),
			CaptureLength: len(frame),
			Length:        len(frame),
		}, frame))
	}
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	assert.Equal(t, frames, readAll(t, path))
}

func TestSourceErrors(t *testing.T) {
	_, err := NewSource(&FileCfg{})
	assert.Error(t, err)

	src, err := NewSource(&FileCfg{FilePath: filepath.Join(t.TempDir(), "missing.pcap")})
	require.NoError(t, err)
	assert.Error(t, src.Start(context.Background()))

	_, _, err = src.ReadPacket()
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.Equal(t, layers.LinkTypeEthernet, src.LinkType())

	garbage := filepath.Join(t.TempDir(), "garbage.pcap")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a capture"), 0o644))
	src, err = NewSource(&FileCfg{FilePath: garbage})
	require.NoError(t, err)
	assert.Error(t, src.Start(context.Background()))
	assert.NoError(t, src.Stop())
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionGzip, CompressionFor("x.pcap.GZ"))
	assert.Equal(t, CompressionZstd, CompressionFor("x.pcap.zst"))
	assert.Equal(t, CompressionNone, CompressionFor("x.pcap"))

	_, err := NewWriter(io.Discard, Compression("lz4"), 0)
	assert.Error(t, err)
}

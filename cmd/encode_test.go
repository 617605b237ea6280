package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/sink/console"
	"firestige.xyz/vlantag/internal/source/file"
)

func defaultEncodeOptions() encodeOptions {
	return encodeOptions{
		outer: tagFlags{etherType: "0x0800"},
		inner: tagFlags{etherType: "0x0800"},
		dst:   "ff:ff:ff:ff:ff:ff",
		src:   "00:00:00:00:00:00",
	}
}

func TestRunEncode_Single(t *testing.T) {
	opts := defaultEncodeOptions()
	opts.outer = tagFlags{vid: 1234, pcp: 2, dei: true, etherType: "0x0800"}

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))
	assert.Equal(t, "54d20800\n", buf.String())
}

func TestRunEncode_Double(t *testing.T) {
	opts := defaultEncodeOptions()
	opts.double = true
	opts.outer = tagFlags{vid: 100, pcp: 5, etherType: "0x8100"}
	opts.inner = tagFlags{vid: 200, pcp: 1, dei: true, etherType: "0x0800"}

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))
	assert.Equal(t, "a064810030c80800\n", buf.String())
}

func TestRunEncode_JSON(t *testing.T) {
	opts := defaultEncodeOptions()
	opts.outer.vid = 42
	opts.format = console.FormatJSON

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))

	var rec console.HeaderRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "single", rec.Kind)
	assert.Equal(t, "002a0800", rec.Wire)
	require.Len(t, rec.Tags, 1)
	assert.Equal(t, uint16(42), rec.Tags[0].VLANIdentifier)
}

func TestRunEncode_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*encodeOptions)
		want   error
	}{
		{"vid", func(o *encodeOptions) { o.outer.vid = 4096 }, core.ErrValueTooLarge},
		{"pcp", func(o *encodeOptions) { o.outer.pcp = 8 }, core.ErrValueTooLarge},
		{"inner vid", func(o *encodeOptions) { o.double = true; o.inner.vid = 0xffff }, core.ErrValueTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultEncodeOptions()
			tt.modify(&opts)

			var buf bytes.Buffer
			err := runEncode(opts, &buf)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, buf.String())
		})
	}

	opts := defaultEncodeOptions()
	opts.outer.etherType = "ipv4"
	assert.Error(t, runEncode(opts, &bytes.Buffer{}))
}

func TestRunEncode_Frame(t *testing.T) {
	opts := defaultEncodeOptions()
	opts.outer.vid = 100
	opts.frame = true
	opts.src = "00:11:22:33:44:55"
	opts.payload = "45000014"

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))
	// 60 byte frame, zero padded
	assert.Equal(t, "ffffffffffff001122334455810000640800"+"45000014", buf.String()[:44])
	assert.Len(t, buf.String(), 121)
}

func TestRunEncode_Profile(t *testing.T) {
	opts := defaultEncodeOptions()
	opts.profiles = writeProfiles(t, testProfiles)
	opts.profile = "carrier"

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))
	assert.Equal(t, "012c8100202a86dd\n", buf.String())

	opts.frame = true
	buf.Reset()
	require.NoError(t, runEncode(opts, &buf))
	// profile tpid in front of the outer tag
	assert.Equal(t, "9100012c8100202a86dd", buf.String()[24:44])

	opts.profile = "missing"
	assert.Error(t, runEncode(opts, &buf))

	opts.profiles = ""
	assert.Error(t, runEncode(opts, &buf))
}

func TestRunEncode_Pcap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tagged.pcap.zst")

	opts := defaultEncodeOptions()
	opts.outer.vid = 7
	opts.pcap = path

	var buf bytes.Buffer
	require.NoError(t, runEncode(opts, &buf))

	src, err := file.NewSource(&file.FileCfg{FilePath: path})
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	raw, err := src.Next()
	require.NoError(t, err)
	assert.Len(t, raw.Data, 60)
	assert.Equal(t, []byte{0x81, 0x00, 0x00, 0x07, 0x08, 0x00}, raw.Data[12:18])
}

func TestParseHex(t *testing.T) {
	b, err := parseHex([]string{"0xA0:64", "81 00"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa0, 0x64, 0x81, 0x00}, b)

	_, err = parseHex([]string{" "})
	assert.Error(t, err)

	_, err = parseHex([]string{"abc"})
	assert.Error(t, err)
}

// Package console renders vlan headers and frames to a writer.
package console

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Formats lists the supported output formats.
func Formats() []string {
	return []string{FormatText, FormatJSON, FormatYAML, FormatTOML}
}

type textRecord interface {
	text() string
}

type Sink struct {
	w      io.Writer
	format string
	sent   int
}

func NewSink(w io.Writer, format string) (*Sink, error) {
	if format == "" {
		format = FormatText
	}
	switch format {
	case FormatText, FormatJSON, FormatYAML, FormatTOML:
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
	return &Sink{w: w, format: format}, nil
}

// Send writes one record. Records are HeaderRecord, FrameRecord or SummaryRecord.
func (s *Sink) Send(record interface{}) error {
	var err error
	switch s.format {
	case FormatJSON:
		enc := json.NewEncoder(s.w)
		enc.SetIndent("", "  ")
		err = enc.Encode(record)
	case FormatYAML:
		err = s.sendYAML(record)
	case FormatTOML:
		err = s.sendTOML(record)
	default:
		r, ok := record.(textRecord)
		if !ok {
			return fmt.Errorf("record %T has no text form", record)
		}
		_, err = io.WriteString(s.w, r.text())
	}
	if err != nil {
		return err
	}
	s.sent++
	return nil
}

func (s *Sink) sendYAML(record interface{}) error {
	out, err := yaml.Marshal(record)
	if err != nil {
		return err
	}
	if s.sent > 0 {
		if _, err := io.WriteString(s.w, "---\n"); err != nil {
			return err
		}
	}
	_, err = s.w.Write(out)
	return err
}

func (s *Sink) sendTOML(record interface{}) error {
	if s.sent > 0 {
		if _, err := io.WriteString(s.w, "\n"); err != nil {
			return err
		}
	}
	return toml.NewEncoder(s.w).Encode(record)
}

func (s *Sink) Close() error {
	return nil
}

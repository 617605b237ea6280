package log

import (
	"errors"
	"io"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ConsoleAppenderOpt selects the console stream, stdout or stderr.
type ConsoleAppenderOpt struct {
	Target string `mapstructure:"target"`
}

// FileAppenderOpt configures a size rotated log file.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`    // megabytes
	MaxBackups int    `mapstructure:"max_backups"` // rotated files kept
	MaxAge     int    `mapstructure:"max_age"`     // days
	Compress   bool   `mapstructure:"compress"`
}

// MultiWriter fans every log line out to all appenders. A failing appender
// does not stop the others.
type MultiWriter struct {
	writers []io.Writer
}

func NewMultiWriter() *MultiWriter {
	return &MultiWriter{}
}

func (m *MultiWriter) Add(writer io.Writer) *MultiWriter {
	m.writers = append(m.writers, writer)
	return m
}

func (m *MultiWriter) Write(p []byte) (int, error) {
	var errs []error
	for _, w := range m.writers {
		if _, err := w.Write(p); err != nil {
			errs = append(errs, err)
		}
	}
	return len(p), errors.Join(errs...)
}

// Close closes file appenders. Console streams stay open.
func (m *MultiWriter) Close() error {
	var errs []error
	for _, w := range m.writers {
		if c, ok := w.(io.Closer); ok && w != os.Stdout && w != os.Stderr {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func (m *MultiWriter) AddConsoleAppender(opt ConsoleAppenderOpt) *MultiWriter {
	if opt.Target == "stdout" {
		return m.Add(os.Stdout)
	}
	return m.Add(os.Stderr)
}

func (m *MultiWriter) AddFileAppender(opt FileAppenderOpt) *MultiWriter {
	return m.Add(&lumberjack.Logger{
		Filename:   opt.Filename,
		MaxSize:    opt.MaxSize,
		MaxBackups: opt.MaxBackups,
		MaxAge:     opt.MaxAge,
		Compress:   opt.Compress,
	})
}

// buildWriter creates the appenders of an already validated config.
func buildWriter(appenders []AppenderConfig) (*MultiWriter, error) {
	w := NewMultiWriter()
	for _, a := range appenders {
		switch strings.ToLower(a.Type) {
		case AppenderConsole:
			var opt ConsoleAppenderOpt
			if err := decodeOptions(a.Options, &opt); err != nil {
				return nil, err
			}
			w.AddConsoleAppender(opt)
		case AppenderFile:
			var opt FileAppenderOpt
			if err := decodeOptions(a.Options, &opt); err != nil {
				return nil, err
			}
			w.AddFileAppender(opt)
		}
	}
	return w, nil
}

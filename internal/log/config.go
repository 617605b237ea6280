package log

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPattern = "%time [%level] %msg %field\n"
	DefaultTime    = "2006-01-02 15:04:05.000"
	DefaultLevel   = "warn"

	AppenderConsole = "console"
	AppenderFile    = "file"
)

type LoggerConfig struct {
	Level     string           `mapstructure:"level"`
	Pattern   string           `mapstructure:"pattern"`
	Time      string           `mapstructure:"time"`
	Appenders []AppenderConfig `mapstructure:"appenders"`
}

type AppenderConfig struct {
	Type    string                 `mapstructure:"type"`
	Options map[string]interface{} `mapstructure:"options"`
}

// DefaultConfig logs warnings to stderr, keeping stdout for command output.
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:     DefaultLevel,
		Pattern:   DefaultPattern,
		Time:      DefaultTime,
		Appenders: []AppenderConfig{{Type: AppenderConsole}},
	}
}

// ApplyDefaults fills empty fields.
func (c *LoggerConfig) ApplyDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}
	if c.Time == "" {
		c.Time = DefaultTime
	}
	if len(c.Appenders) == 0 {
		c.Appenders = []AppenderConfig{{Type: AppenderConsole}}
	}
}

// Validate checks the level and appenders.
func (c *LoggerConfig) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	for i, a := range c.Appenders {
		switch strings.ToLower(a.Type) {
		case AppenderConsole:
			var opt ConsoleAppenderOpt
			if err := decodeOptions(a.Options, &opt); err != nil {
				return fmt.Errorf("log.appenders[%d]: %w", i, err)
			}
			switch opt.Target {
			case "", "stdout", "stderr":
			default:
				return fmt.Errorf("log.appenders[%d]: unknown console target %q", i, opt.Target)
			}
		case AppenderFile:
			var opt FileAppenderOpt
			if err := decodeOptions(a.Options, &opt); err != nil {
				return fmt.Errorf("log.appenders[%d]: %w", i, err)
			}
			if opt.Filename == "" {
				return fmt.Errorf("log.appenders[%d]: filename is required", i)
			}
		default:
			return fmt.Errorf("log.appenders[%d]: unknown appender type %q", i, a.Type)
		}
	}
	return nil
}

func decodeOptions(options map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(options)
}

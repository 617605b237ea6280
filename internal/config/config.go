// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"firestige.xyz/vlantag/internal/core"
	"firestige.xyz/vlantag/internal/log"
	"firestige.xyz/vlantag/internal/sink/console"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `vlantag:` root key in YAML.
type GlobalConfig struct {
	Log      log.LoggerConfig `mapstructure:"log"`
	Decoder  DecoderConfig    `mapstructure:"decoder"`
	Inspect  InspectConfig    `mapstructure:"inspect"`
	Output   string           `mapstructure:"output"`   // text | json | yaml | toml
	Profiles string           `mapstructure:"profiles"` // Default tag profile file
}

// DecoderConfig configures frame decoding.
type DecoderConfig struct {
	// Ether types introducing a vlan tag, hex ("0x8100") or decimal
	TagProtocolIdentifiers []string `mapstructure:"tag_protocol_identifiers"`

	tpids []uint16
}

// TPIDs returns the parsed tag protocol identifiers, valid after
// ValidateAndApplyDefaults.
func (c *DecoderConfig) TPIDs() []uint16 {
	return c.tpids
}

// InspectConfig configures capture inspection.
type InspectConfig struct {
	MaxFrames     int    `mapstructure:"max_frames"`     // 0 = whole capture
	PrintFrames   bool   `mapstructure:"print_frames"`   // Print every decoded frame
	MetricsOut    string `mapstructure:"metrics_out"`    // Prometheus textfile path
	MetricsListen string `mapstructure:"metrics_listen"` // Serve metrics after inspection
	MetricsPath   string `mapstructure:"metrics_path"`
}

// configRoot is the wrapper matching the YAML root key.
type configRoot struct {
	Vlantag GlobalConfig `mapstructure:"vlantag"`
}

// Load reads the config file at path, applies environment overrides and
// defaults, then validates. An empty path loads defaults and environment only.
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		// Set config file path
		v.SetConfigFile(path)

		// Read config file
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// The `vlantag.` key prefix maps to `VLANTAG_` in env vars,
	// e.g. key "vlantag.log.level" → env "VLANTAG_LOG_LEVEL".
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Unmarshal into wrapper → extract inner GlobalConfig
	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Vlantag

	// Validate and apply defaults
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used without a config file.
func Default() *GlobalConfig {
	cfg := &GlobalConfig{}
	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("vlantag.log.level", log.DefaultLevel)
	v.SetDefault("vlantag.log.pattern", log.DefaultPattern)
	v.SetDefault("vlantag.log.time", log.DefaultTime)

	// Decoder defaults
	v.SetDefault("vlantag.decoder.tag_protocol_identifiers", []string{"0x8100", "0x88a8", "0x9100"})

	// Inspect defaults
	v.SetDefault("vlantag.inspect.max_frames", 0)
	v.SetDefault("vlantag.inspect.print_frames", false)
	v.SetDefault("vlantag.inspect.metrics_out", "")
	v.SetDefault("vlantag.inspect.metrics_listen", "")
	v.SetDefault("vlantag.inspect.metrics_path", "/metrics")

	v.SetDefault("vlantag.output", console.FormatText)
	v.SetDefault("vlantag.profiles", "")
}

// ValidateAndApplyDefaults validates the configuration and fills empty fields.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	cfg.Log.ApplyDefaults()
	if err := cfg.Log.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}

	if len(cfg.Decoder.TagProtocolIdentifiers) == 0 {
		for _, t := range core.DefaultTagProtocolIdentifiers() {
			cfg.Decoder.TagProtocolIdentifiers = append(cfg.Decoder.TagProtocolIdentifiers, fmt.Sprintf("0x%04x", uint16(t)))
		}
	}
	cfg.Decoder.tpids = cfg.Decoder.tpids[:0]
	for _, s := range cfg.Decoder.TagProtocolIdentifiers {
		tpid, err := ParseUint16(s)
		if err != nil {
			return fmt.Errorf("%w: decoder.tag_protocol_identifiers: %v", core.ErrConfigInvalid, err)
		}
		cfg.Decoder.tpids = append(cfg.Decoder.tpids, tpid)
	}

	if cfg.Inspect.MaxFrames < 0 {
		return fmt.Errorf("%w: inspect.max_frames must not be negative", core.ErrConfigInvalid)
	}
	if cfg.Inspect.MetricsPath == "" {
		cfg.Inspect.MetricsPath = "/metrics"
	}

	if cfg.Output == "" {
		cfg.Output = console.FormatText
	}
	if !isFormat(cfg.Output) {
		return fmt.Errorf("%w: output must be one of %s", core.ErrConfigInvalid, strings.Join(console.Formats(), ", "))
	}
	return nil
}

func isFormat(s string) bool {
	for _, f := range console.Formats() {
		if s == f {
			return true
		}
	}
	return false
}

// ParseUint16 parses a decimal or 0x prefixed hex number.
func ParseUint16(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16 bit value %q", s)
	}
	return uint16(v), nil
}

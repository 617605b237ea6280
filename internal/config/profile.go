package config

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"firestige.xyz/vlantag/internal/core"
)

// ProfileSet is a file of named tag profiles.
type ProfileSet struct {
	Profiles []Profile `mapstructure:"profiles"`
}

// Profile describes the vlan tagging of a frame: one tag or an outer and an
// inner tag.
type Profile struct {
	Name        string       `mapstructure:"name"`
	Description string       `mapstructure:"description"`
	TPID        uint16       `mapstructure:"tpid"` // Ether type before the first tag, 0 = default
	Tags        []ProfileTag `mapstructure:"tags"`
}

// ProfileTag is one tag of a profile.
type ProfileTag struct {
	VID       uint16 `mapstructure:"vid"`
	PCP       uint8  `mapstructure:"pcp"`
	DEI       bool   `mapstructure:"dei"`
	EtherType uint16 `mapstructure:"ether_type"`
}

// ToSingle converts the tag to a single vlan header.
func (t ProfileTag) ToSingle() core.SingleVLANHeader {
	return core.SingleVLANHeader{
		PriorityCodePoint:     t.PCP,
		DropEligibleIndicator: t.DEI,
		VLANIdentifier:        t.VID,
		EtherType:             t.EtherType,
	}
}

// Header converts the profile to a validated vlan header.
func (p Profile) Header() (core.VLANHeader, error) {
	var h interface {
		core.VLANHeader
		Validate() error
	}
	switch len(p.Tags) {
	case 1:
		h = p.Tags[0].ToSingle()
	case 2:
		h = core.DoubleVLANHeader{Outer: p.Tags[0].ToSingle(), Inner: p.Tags[1].ToSingle()}
	default:
		return nil, fmt.Errorf("%w: profile %q has %d tags, want 1 or 2", core.ErrConfigInvalid, p.Name, len(p.Tags))
	}
	if err := h.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", p.Name, err)
	}
	return h, nil
}

// Validate validates every profile.
func (ps *ProfileSet) Validate() error {
	if len(ps.Profiles) == 0 {
		return fmt.Errorf("%w: no profiles defined", core.ErrConfigInvalid)
	}
	seen := make(map[string]struct{}, len(ps.Profiles))
	for i, p := range ps.Profiles {
		if p.Name == "" {
			return fmt.Errorf("%w: profiles[%d]: name is required", core.ErrConfigInvalid, i)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: duplicate profile %q", core.ErrConfigInvalid, p.Name)
		}
		seen[p.Name] = struct{}{}
		if _, err := p.Header(); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the profile called name.
func (ps *ProfileSet) Lookup(name string) (Profile, error) {
	for _, p := range ps.Profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("profile %q not found", name)
}

// ParseProfiles parses and validates a YAML profile document.
func ParseProfiles(data []byte) (*ProfileSet, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}

	var ps ProfileSet
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  uintRangeHook,
		ErrorUnused: true,
		Result:      &ps,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}

	if err := ps.Validate(); err != nil {
		return nil, err
	}
	return &ps, nil
}

// LoadProfiles reads and parses a YAML profile file.
func LoadProfiles(path string) (*ProfileSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file %s: %w", path, err)
	}
	ps, err := ParseProfiles(data)
	if err != nil {
		return nil, fmt.Errorf("profile file %s: %w", path, err)
	}
	return ps, nil
}

// uintRangeHook decodes hex strings ("0x8100") and integral floats into unsigned
// fields and rejects values that do not fit the target width.
func uintRangeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
	default:
		return data, nil
	}
	bits := to.Bits()
	limit := uint64(math.MaxUint64)
	if bits < 64 {
		limit = 1<<uint(bits) - 1
	}

	switch v := data.(type) {
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(v), 0, bits)
		if err != nil {
			return nil, fmt.Errorf("invalid %d bit value %q", bits, v)
		}
		return n, nil
	case float64:
		if v != math.Trunc(v) || v < 0 || v > float64(limit) {
			return nil, fmt.Errorf("invalid %d bit value %v", bits, v)
		}
		return uint64(v), nil
	case int:
		if v < 0 || uint64(v) > limit {
			return nil, fmt.Errorf("value %d out of range for %d bit field", v, bits)
		}
	case uint64:
		if v > limit {
			return nil, fmt.Errorf("value %d out of range for %d bit field", v, bits)
		}
	}
	return data, nil
}

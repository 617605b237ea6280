package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// parseHex decodes hex input given as one or more arguments. Separators
// (spaces, colons, dashes) and a leading 0x are ignored.
func parseHex(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "", "\t", "", "\n", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("no hex input")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}

package main

import (
	"fmt"
	"strconv"
)

// parseWord parses a 32-bit value in any Go integer syntax (0x, 0b, 0o or
// decimal).
func parseWord(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseWords(args []string) ([]uint32, error) {
	words := make([]uint32, len(args))
	for i, arg := range args {
		w, err := parseWord(arg)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

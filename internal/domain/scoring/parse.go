package scoring

import (
	"strings"

	"github.com/okian/shotboard/internal/domain/model"
)

// parseCeiling saturates long digit runs so they cannot overflow int; any
// value that large is far above MaxScore anyway.
const parseCeiling = 1_000_000_000

// ParseLeadingInt reads an optional sign and the leading decimal digits of
// raw, ignoring leading whitespace and any trailing text ("7", " 12", "3.9",
// "8px"). ok is false when raw does not start with a number.
func ParseLeadingInt(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n < parseCeiling {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// ParseRaw interprets live input for SetScore: empty input clears the shot,
// numeric input is the value. ok is false for anything else.
func ParseRaw(raw string) (*int, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	v, ok := ParseLeadingInt(raw)
	if !ok {
		return nil, false
	}
	return &v, true
}

// Clamp bounds v to the valid shot range.
func Clamp(v int) int {
	if v > model.MaxScore {
		return model.MaxScore
	}
	if v < model.MinScore {
		return model.MinScore
	}
	return v
}

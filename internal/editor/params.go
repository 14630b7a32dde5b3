package editor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinQuality        = 1
	MaxQuality        = 95
	DefaultQuality    = 75
	DefaultProportion = 2
)

// Param is an optional numeric positional argument. Set is false when the
// argument was not given at all; only then does the default apply.
type Param struct {
	Raw string
	Set bool
}

// NewParam builds a Param from the positional arguments following the two
// paths, if any.
func NewParam(rest []string) Param {
	if len(rest) == 0 {
		return Param{}
	}
	return Param{Raw: rest[0], Set: true}
}

// ParseQuality returns the JPEG quality for p, or def when p is unset.
func ParseQuality(p Param, def int) (int, error) {
	if !p.Set {
		return def, nil
	}
	q, err := strconv.Atoi(strings.TrimSpace(p.Raw))
	if err != nil {
		return 0, newError(KindInvalidQuality, "", "QUALITY should be numeric value", fmt.Errorf("%q", p.Raw))
	}
	if q < MinQuality || q > MaxQuality {
		return 0, newError(KindInvalidQuality, "", fmt.Sprintf("QUALITY value should be between %d to %d", MinQuality, MaxQuality), fmt.Errorf("got %d", q))
	}
	return q, nil
}

// ParseProportion returns the resize divisor for p, or def when p is unset.
func ParseProportion(p Param, def int) (int, error) {
	if !p.Set {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Raw))
	if err != nil {
		return 0, newError(KindInvalidProportion, "", "PROPORTION should be numeric value", fmt.Errorf("%q", p.Raw))
	}
	if n <= 0 {
		return 0, newError(KindInvalidProportion, "", "PROPORTION should be positive integer", fmt.Errorf("got %d", n))
	}
	return n, nil
}

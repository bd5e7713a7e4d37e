package device

import (
	"strings"

	"github.com/c360/topiclens/errors"
)

// Pattern describes one topic shape from which a device identity is
// extracted. Segments are matched positionally: a literal segment must
// equal the topic segment, "+" matches any single segment, "{id}"
// captures the device id and "{type}" captures the device type. The
// topic may extend past the pattern; "{type}" is optional and binds
// only when the topic is deep enough to reach it.
type Pattern struct {
	raw      string
	segments []string
	idIndex  int
}

// ParsePattern validates and compiles an extraction pattern. Every
// pattern must capture "{id}" exactly once.
func ParsePattern(raw string) (Pattern, error) {
	segments := strings.Split(raw, "/")
	idIndex := -1
	for i, seg := range segments {
		if seg == "{id}" {
			if idIndex >= 0 {
				return Pattern{}, errors.WrapInvalid(errors.ErrInvalidConfig, "Pattern", "ParsePattern", "duplicate {id} in "+raw)
			}
			idIndex = i
		}
	}
	if idIndex < 0 {
		return Pattern{}, errors.WrapInvalid(errors.ErrInvalidConfig, "Pattern", "ParsePattern", "missing {id} in "+raw)
	}
	return Pattern{raw: raw, segments: segments, idIndex: idIndex}, nil
}

// String returns the pattern source text.
func (p Pattern) String() string {
	return p.raw
}

// extract attempts to bind the pattern against topic segments. Returns
// the captured device id, the device type when bound, and whether the
// pattern matched.
func (p Pattern) extract(parts []string) (id, deviceType string, ok bool) {
	for i, seg := range p.segments {
		if i >= len(parts) {
			// Running out of topic is only acceptable past the id,
			// and only for an optional {type} tail.
			if i > p.idIndex && seg == "{type}" {
				break
			}
			return "", "", false
		}
		switch seg {
		case "{id}":
			id = parts[i]
		case "{type}":
			deviceType = parts[i]
		case "+":
			// any single segment
		default:
			if seg != parts[i] {
				return "", "", false
			}
		}
	}
	if id == "" {
		return "", "", false
	}
	return id, deviceType, true
}

// DefaultPatterns returns the stock topic shapes recognized for device
// attribution, in priority order.
func DefaultPatterns() []string {
	return []string{
		"telemetry/{id}/{type}",
		"devices/{id}",
		"sites/+/devices/{id}",
	}
}

package ascii

import "strings"

// DefaultRamp is the ten level ramp used when no charset is configured.
const DefaultRamp = " .:-=+*#%@"

// Named charset presets. Each is ordered from sparse (light) to dense (dark).
var presets = map[string]string{
	"short":  " .:|",
	"medium": DefaultRamp,
	"long":   " .'`^\",:;Il!i><~+_-?][}{1)(|\\/tfjrxnuvczXYUJCLQ0OZmwqpdbkhao*#MW&8%B@$",
	"blocks": " ░▒▓█",
}

// Ramp maps 8-bit brightness values onto an ordered run of characters.
type Ramp []rune

// NewRamp builds a ramp from a literal character string.
func NewRamp(chars string) Ramp {
	return Ramp([]rune(chars))
}

// Preset returns the ramp registered under name. Unknown or empty names
// resolve to the medium ramp, and ok reports whether name was recognised.
func Preset(name string) (r Ramp, ok bool) {
	chars, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return NewRamp(DefaultRamp), false
	}
	return NewRamp(chars), true
}

// PresetNames lists the registered charset names.
func PresetNames() []string {
	return []string{"short", "medium", "long", "blocks"}
}

// Index returns floor(b / 256 * len(r)). The integer form is exact, and since
// b < 256 the result is always a valid index.
func (r Ramp) Index(b uint8) int {
	return int(b) * len(r) / 256
}

// Char returns the ramp character for brightness b.
func (r Ramp) Char(b uint8) rune {
	return r[r.Index(b)]
}

func (r Ramp) String() string {
	return string(r)
}

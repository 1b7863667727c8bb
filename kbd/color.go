package kbd

import (
	"fmt"

	"github.com/ardnew/fusionkbd/pkg"
)

// Color is a predefined device color code.
type Color uint8

// Predefined colors. ColorRand selects the device's random/cycling mode.
const (
	ColorRand   Color = 0x00
	ColorRed    Color = 0x01
	ColorGreen  Color = 0x02
	ColorYellow Color = 0x03
	ColorBlue   Color = 0x04
	ColorOrange Color = 0x05
	ColorPurple Color = 0x06
	ColorWhite  Color = 0x07
)

var colorNames = [...]string{
	ColorRand:   "rand",
	ColorRed:    "red",
	ColorGreen:  "green",
	ColorYellow: "yellow",
	ColorBlue:   "blue",
	ColorOrange: "orange",
	ColorPurple: "purple",
	ColorWhite:  "white",
}

// colorAliases lists additional accepted names.
var colorAliases = [...]struct {
	name  string
	color Color
}{
	{"rainbow", ColorRand},
	{"cycle", ColorRand},
}

// Colors returns all colors in code order.
func Colors() []Color {
	out := make([]Color, 0, len(colorNames))
	for c := ColorRand; c <= ColorWhite; c++ {
		out = append(out, c)
	}
	return out
}

// ColorAliases returns the names that resolve to c other than its own.
func ColorAliases(c Color) []string {
	var out []string
	for _, a := range colorAliases {
		if a.color == c {
			out = append(out, a.name)
		}
	}
	return out
}

// Valid reports whether c is a known color code.
func (c Color) Valid() bool {
	return c <= ColorWhite
}

// String returns the color name.
func (c Color) String() string {
	if !c.Valid() {
		return fmt.Sprintf("color(0x%02x)", uint8(c))
	}
	return colorNames[c]
}

// ParseColor resolves a color name or alias, ignoring case.
func ParseColor(name string) (Color, error) {
	key := normalizeName(name)
	for _, c := range Colors() {
		if colorNames[c] == key {
			return c, nil
		}
	}
	for _, a := range colorAliases {
		if a.name == key {
			return a.color, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", pkg.ErrUnknownColor, name)
}

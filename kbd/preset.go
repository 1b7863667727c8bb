package kbd

import (
	"fmt"
	"strings"

	"github.com/ardnew/fusionkbd/pkg"
)

// Preset is a built-in lighting effect identified by its device mode code.
type Preset uint8

// Built-in presets.
const (
	PresetStatic          Preset = 0x01
	PresetBreathing       Preset = 0x02
	PresetWave            Preset = 0x03
	PresetFadeOnKeypress  Preset = 0x04
	PresetMarquee         Preset = 0x05
	PresetRipple          Preset = 0x06
	PresetFlashOnKeypress Preset = 0x07
	PresetNeon            Preset = 0x08
	PresetRainbowMarquee  Preset = 0x09
	PresetRaindrop        Preset = 0x0a
	PresetCircleMarquee   Preset = 0x0b
	PresetHedge           Preset = 0x0c
	PresetRotate          Preset = 0x0d
)

var presetNames = [...]string{
	PresetStatic:          "static",
	PresetBreathing:       "breathing",
	PresetWave:            "wave",
	PresetFadeOnKeypress:  "fade_on_keypress",
	PresetMarquee:         "marquee",
	PresetRipple:          "ripple",
	PresetFlashOnKeypress: "flash_on_keypress",
	PresetNeon:            "neon",
	PresetRainbowMarquee:  "rainbow_marquee",
	PresetRaindrop:        "raindrop",
	PresetCircleMarquee:   "circle_marquee",
	PresetHedge:           "hedge",
	PresetRotate:          "rotate",
}

// Presets returns all presets in code order.
func Presets() []Preset {
	out := make([]Preset, 0, len(presetNames)-1)
	for p := PresetStatic; p <= PresetRotate; p++ {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a known preset code.
func (p Preset) Valid() bool {
	return p >= PresetStatic && p <= PresetRotate
}

// String returns the snake_case preset name.
func (p Preset) String() string {
	if !p.Valid() {
		return fmt.Sprintf("preset(0x%02x)", uint8(p))
	}
	return presetNames[p]
}

// RequiresColor reports whether the effect needs an explicit color. Wave and
// neon cycle through colors on their own.
func (p Preset) RequiresColor() bool {
	return p != PresetWave && p != PresetNeon
}

// ParsePreset resolves a preset name. Matching ignores case and accepts '-'
// in place of '_'.
func ParsePreset(name string) (Preset, error) {
	key := normalizeName(name)
	for _, p := range Presets() {
		if presetNames[p] == key {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", pkg.ErrUnknownPreset, name)
}

func normalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}

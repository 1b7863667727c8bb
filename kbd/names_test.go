package kbd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

// =============================================================================
// Presets
// =============================================================================

func TestPresets(t *testing.T) {
	presets := kbd.Presets()
	require.Len(t, presets, 13)
	for i, p := range presets {
		assert.Equal(t, kbd.Preset(i+1), p)
		assert.True(t, p.Valid())
	}
	assert.False(t, kbd.Preset(0).Valid())
	assert.False(t, kbd.Preset(0x0e).Valid())
	assert.Equal(t, "preset(0x0e)", kbd.Preset(0x0e).String())
}

func TestParsePreset(t *testing.T) {
	tests := []struct {
		name string
		want kbd.Preset
	}{
		{"static", kbd.PresetStatic},
		{"breathing", kbd.PresetBreathing},
		{"wave", kbd.PresetWave},
		{"fade_on_keypress", kbd.PresetFadeOnKeypress},
		{"marquee", kbd.PresetMarquee},
		{"ripple", kbd.PresetRipple},
		{"flash_on_keypress", kbd.PresetFlashOnKeypress},
		{"neon", kbd.PresetNeon},
		{"rainbow_marquee", kbd.PresetRainbowMarquee},
		{"raindrop", kbd.PresetRaindrop},
		{"circle_marquee", kbd.PresetCircleMarquee},
		{"hedge", kbd.PresetHedge},
		{"rotate", kbd.PresetRotate},
		{"Rainbow-Marquee", kbd.PresetRainbowMarquee},
		{"  STATIC ", kbd.PresetStatic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kbd.ParsePreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePreset_Unknown(t *testing.T) {
	for _, name := range []string{"", "strobe", "static2"} {
		_, err := kbd.ParsePreset(name)
		assert.ErrorIs(t, err, pkg.ErrUnknownPreset, name)
	}
}

func TestPreset_RoundTripName(t *testing.T) {
	for _, p := range kbd.Presets() {
		got, err := kbd.ParsePreset(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
}

func TestPreset_RequiresColor(t *testing.T) {
	for _, p := range kbd.Presets() {
		want := p != kbd.PresetWave && p != kbd.PresetNeon
		assert.Equal(t, want, p.RequiresColor(), p.String())
	}
}

// =============================================================================
// Colors
// =============================================================================

func TestParseColor(t *testing.T) {
	tests := []struct {
		name string
		want kbd.Color
	}{
		{"rand", kbd.ColorRand},
		{"red", kbd.ColorRed},
		{"green", kbd.ColorGreen},
		{"yellow", kbd.ColorYellow},
		{"blue", kbd.ColorBlue},
		{"orange", kbd.ColorOrange},
		{"purple", kbd.ColorPurple},
		{"white", kbd.ColorWhite},
		{"rainbow", kbd.ColorRand},
		{"cycle", kbd.ColorRand},
		{"BLUE", kbd.ColorBlue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kbd.ParseColor(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColor_Unknown(t *testing.T) {
	_, err := kbd.ParseColor("magenta")
	assert.ErrorIs(t, err, pkg.ErrUnknownColor)
}

func TestColors(t *testing.T) {
	colors := kbd.Colors()
	require.Len(t, colors, 8)
	for i, c := range colors {
		assert.Equal(t, kbd.Color(i), c)
		assert.True(t, c.Valid())
	}
	assert.False(t, kbd.Color(8).Valid())
	assert.Equal(t, []string{"rainbow", "cycle"}, kbd.ColorAliases(kbd.ColorRand))
	assert.Empty(t, kbd.ColorAliases(kbd.ColorRed))
}

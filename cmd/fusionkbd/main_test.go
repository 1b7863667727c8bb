package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/fusionkbd/host/hal/sim"
	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

type result struct {
	code   int
	stdout string
	stderr string
}

// runSim runs the tool against kb with an empty configuration directory.
func runSim(t *testing.T, kb *sim.Keyboard, args ...string) result {
	t.Helper()
	prev := pkg.DefaultLogger
	prevLevel := pkg.GetLogLevel()
	t.Cleanup(func() {
		pkg.SetLogger(prev)
		pkg.SetLogLevel(prevLevel)
	})

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.sim = kb
	base := []string{"-config", filepath.Join(t.TempDir(), "config.yaml"), "-backend", "sim"}
	code := a.run(context.Background(), append(base, args...))
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFrame(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i * 3)
	}
	path := filepath.Join(t.TempDir(), "frame.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// =============================================================================
// Usage
// =============================================================================

func TestRun_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"dance"}},
		{"unknown protocol", []string{"-protocol", "turbo", "list"}},
		{"unknown backend", []string{"-backend", "serial", "list"}},
		{"preset without args", []string{"preset"}},
		{"preset too many args", []string{"preset", "static", "red", "blue"}},
		{"preset missing color", []string{"preset", "static"}},
		{"preset unknown", []string{"preset", "sparkle", "red"}},
		{"color unknown", []string{"preset", "static", "teal"}},
		{"brightness too high", []string{"preset", "-b", "51", "static", "red"}},
		{"speed too high", []string{"preset", "-s", "11", "wave"}},
		{"negative speed", []string{"preset", "-s", "-1", "wave"}},
		{"slot too high", []string{"upload", "-slot", "5", "frame.bin"}},
		{"upload without file", []string{"upload"}},
		{"activate extra arg", []string{"activate", "2"}},
		{"list extra arg", []string{"list", "all"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := sim.New()
			r := runSim(t, kb, tt.args...)
			assert.Equal(t, exitUsage, r.code, r.stderr)
			assert.Empty(t, kb.Transfers(), "usage errors never reach the device")
		})
	}
}

// =============================================================================
// Device Commands
// =============================================================================

func TestRun_PresetPrimed(t *testing.T) {
	kb := sim.New()
	r := runSim(t, kb, "preset", "wave")
	require.Equal(t, exitOK, r.code, r.stderr)

	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "08 00 33 00 10 00 00 b4"), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "08 00 03 05 10 00 00 df"), lines[1])
	assert.Equal(t, sim.State{Mode: 0x03, Speed: 5, Brightness: 16}, kb.State())
}

func TestRun_PresetLegacy(t *testing.T) {
	kb := sim.New()
	r := runSim(t, kb, "-protocol", "legacy", "preset", "-s", "0", "-b", "50", "static", "green")
	require.Equal(t, exitOK, r.code, r.stderr)

	require.Len(t, kb.Transfers(), 1)
	assert.Equal(t, sim.State{Mode: 0x01, Speed: 0, Brightness: 50, Color: 0x02}, kb.State())
	assert.True(t, kb.DriverBound(0), "kernel driver reattached")
	assert.True(t, kb.DriverBound(3), "kernel driver reattached")
	assert.False(t, kb.IsOpen())
}

func TestRun_PresetAlias(t *testing.T) {
	kb := sim.New()
	r := runSim(t, kb, "-protocol", "slotted", "preset", "breathing", "rainbow")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Equal(t, sim.State{Mode: 0x02, Speed: 5, Brightness: 16, Color: 0x00}, kb.State())
}

func TestRun_Custom(t *testing.T) {
	kb := sim.New()
	path := writeFrame(t, kbd.ProfileSize)

	r := runSim(t, kb, "custom", "-slot", "3", "-b", "20", path)
	require.Equal(t, exitOK, r.code, r.stderr)

	want, err := os.ReadFile(path)
	require.NoError(t, err)
	got := kb.Slot(3)
	assert.Equal(t, want, got[:])
	assert.Equal(t, 8, strings.Count(r.stdout, "interrupt ep=0x06 len=64"))

	slot, ok := kb.State().CustomSlot()
	require.True(t, ok)
	assert.Equal(t, uint8(3), slot)
	assert.Equal(t, uint8(20), kb.State().Brightness)
}

func TestRun_UploadThenActivate(t *testing.T) {
	kb := sim.New()
	path := writeFrame(t, kbd.ProfileSize+100)

	r := runSim(t, kb, "upload", "-slot", "1", path)
	require.Equal(t, exitOK, r.code, r.stderr)
	_, ok := kb.State().CustomSlot()
	assert.False(t, ok, "upload does not activate")

	r = runSim(t, kb, "activate", "-slot", "1")
	require.Equal(t, exitOK, r.code, r.stderr)
	slot, ok := kb.State().CustomSlot()
	require.True(t, ok)
	assert.Equal(t, uint8(1), slot)
}

func TestRun_CustomFileErrors(t *testing.T) {
	kb := sim.New()

	r := runSim(t, kb, "custom", filepath.Join(t.TempDir(), "missing.bin"))
	assert.Equal(t, exitFailure, r.code)

	r = runSim(t, kb, "custom", writeFrame(t, 100))
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "buffer too small")
	assert.Empty(t, kb.Transfers())
}

func TestRun_Download(t *testing.T) {
	kb := sim.New()
	var p kbd.Profile
	for i := range p {
		p[i] = byte(255 - i)
	}
	kb.SetSlot(2, p)

	out := filepath.Join(t.TempDir(), "slot2.bin")
	r := runSim(t, kb, "download", "-slot", "2", out)
	require.Equal(t, exitOK, r.code, r.stderr)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, p[:], got)
	assert.Equal(t, 8, strings.Count(r.stdout, "interrupt ep=0x86 len=64"))
}

func TestRun_DownloadNotSupported(t *testing.T) {
	out := filepath.Join(t.TempDir(), "slot.bin")
	r := runSim(t, sim.New(), "-protocol", "legacy", "download", out)
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "not supported")
	assert.NoFileExists(t, out)
}

func TestRun_DeviceNotFoundHint(t *testing.T) {
	kb := sim.New()
	kb.Unplug()
	r := runSim(t, kb, "preset", "wave")
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "device not found")
	assert.Contains(t, r.stderr, "udev rule granting access to 1044:7a39")
}

func TestRun_AccessDeniedHint(t *testing.T) {
	kb := sim.New()
	kb.Faults.Open = pkg.ErrAccessDenied
	r := runSim(t, kb, "activate")
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "hint:")
}

func TestRun_TransferFailure(t *testing.T) {
	kb := sim.New()
	kb.Faults.Control = map[int]error{1: pkg.ErrStall}
	r := runSim(t, kb, "preset", "neon")
	assert.Equal(t, exitFailure, r.code)
	assert.Contains(t, r.stderr, "set preset")
	assert.NotContains(t, r.stderr, "hint:")
	assert.False(t, kb.IsOpen(), "session closed after failure")
}

// =============================================================================
// Configuration
// =============================================================================

func TestRun_ConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"backend: sim\nprotocol: slotted\ndefaults:\n  brightness: 40\n  speed: 2\n"), 0o644))

	prev := pkg.DefaultLogger
	t.Cleanup(func() { pkg.SetLogger(prev) })

	var stdout, stderr bytes.Buffer
	a := newApp(&stdout, &stderr)
	a.sim = sim.New()
	code := a.run(context.Background(), []string{"-config", path, "preset", "ripple", "blue"})
	require.Equal(t, exitOK, code, stderr.String())

	require.Len(t, a.sim.Transfers(), 1, "slotted protocol sends one header")
	assert.Equal(t, sim.State{Mode: 0x06, Speed: 2, Brightness: 40, Color: 0x04}, a.sim.State())
}

func TestRun_ConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("protocol: [\n"), 0o644))

	var stdout, stderr bytes.Buffer
	code := newApp(&stdout, &stderr).run(context.Background(), []string{"-config", path, "list"})
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "config:")
}

func TestRun_VerboseLogsJSON(t *testing.T) {
	r := runSim(t, sim.New(), "-v", "-json", "preset", "wave")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stderr, `"component":"session"`)
	assert.Contains(t, r.stderr, `"msg":"preset applied"`)
}

// =============================================================================
// Informational Commands
// =============================================================================

func TestRun_List(t *testing.T) {
	r := runSim(t, sim.New(), "list")
	require.Equal(t, exitOK, r.code)
	for _, want := range []string{"fade_on_keypress", "rotate", "0x0d", "purple", "rainbow, cycle"} {
		assert.Contains(t, r.stdout, want)
	}
}

func TestRun_Devices(t *testing.T) {
	r := runSim(t, sim.New(), "devices")
	require.Equal(t, exitOK, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Bus 001 Device 001: ID 1044:7a39")
	assert.Contains(t, r.stdout, fusionName)
	assert.Contains(t, r.stdout, "[supported]")
}

func TestRun_Version(t *testing.T) {
	r := runSim(t, sim.New(), "version")
	require.Equal(t, exitOK, r.code)
	assert.Contains(t, r.stdout, "fusionkbd dev")
	assert.Contains(t, r.stdout, "sim")
	assert.Contains(t, r.stdout, "protocol: primed")
}

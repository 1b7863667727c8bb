package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"text/tabwriter"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

// fusionName is shown for the keyboard in device listings.
const fusionName = "Fusion RGB keyboard (Aero 15X)"

// namer describes a device by USB ID.
type namer interface {
	Describe(vid, pid uint16) string
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"preset":   {"Switch to a built-in effect", runPreset},
	"custom":   {"Upload a 512-byte frame and activate it", runCustom},
	"upload":   {"Upload a 512-byte frame without activating it", runUpload},
	"activate": {"Activate a custom slot", runActivate},
	"download": {"Read a custom slot into a file", runDownload},
	"list":     {"List presets and colors", runList},
	"devices":  {"List attached USB devices", runDevices},
	"version":  {"Print version information", runVersion},
}

var commandOrder = []string{
	"preset", "custom", "upload", "activate", "download", "list", "devices", "version",
}

// =============================================================================
// Argument Helpers
// =============================================================================

// newFlagSet returns a flag set for a command whose errors are usage errors.
func (a *app) newFlagSet(name, synopsis string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: fusionkbd %s %s\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return usagef("%s: help requested", fs.Name())
		}
		return usagef("%s: %v", fs.Name(), err)
	}
	return nil
}

func checkRange(name string, v, max uint) (uint8, error) {
	if v > max {
		return 0, usagef("%s %d out of range 0-%d", name, v, max)
	}
	return uint8(v), nil
}

func (a *app) brightnessFlag(fs *flag.FlagSet) *uint {
	return fs.Uint("b", uint(a.cfg.Defaults.Brightness), fmt.Sprintf("Brightness 0-%d", kbd.MaxBrightness))
}

func (a *app) slotFlag(fs *flag.FlagSet) *uint {
	return fs.Uint("slot", uint(a.cfg.Defaults.Slot), fmt.Sprintf("Custom slot 0-%d", kbd.SlotCount-1))
}

// =============================================================================
// Device Commands
// =============================================================================

func runPreset(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("preset", "[-s speed] [-b brightness] <preset> [color]")
	speedArg := fs.Uint("s", uint(a.cfg.Defaults.Speed), fmt.Sprintf("Speed 0-%d", kbd.MaxSpeed))
	brightArg := a.brightnessFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return usagef("preset: expected <preset> [color]")
	}

	speed, err := checkRange("speed", *speedArg, uint(kbd.MaxSpeed))
	if err != nil {
		return err
	}
	brightness, err := checkRange("brightness", *brightArg, uint(kbd.MaxBrightness))
	if err != nil {
		return err
	}

	preset, err := kbd.ParsePreset(fs.Arg(0))
	if err != nil {
		return usagef("%v", err)
	}
	color := kbd.ColorRand
	if fs.NArg() == 2 {
		if color, err = kbd.ParseColor(fs.Arg(1)); err != nil {
			return usagef("%v", err)
		}
	} else if preset.RequiresColor() {
		return usagef("preset %s requires a color", preset)
	}

	return a.withSession(ctx, func(s *kbd.Session) error {
		return s.SetPreset(ctx, preset, speed, brightness, color)
	})
}

func runCustom(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("custom", "[-slot n] [-b brightness] <file>")
	slotArg := a.slotFlag(fs)
	brightArg := a.brightnessFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return usagef("custom: expected <file>")
	}
	slot, err := checkRange("slot", *slotArg, kbd.SlotCount-1)
	if err != nil {
		return err
	}
	brightness, err := checkRange("brightness", *brightArg, uint(kbd.MaxBrightness))
	if err != nil {
		return err
	}

	profile, err := readProfileFile(fs.Arg(0))
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(s *kbd.Session) error {
		if err := s.UploadCustom(ctx, slot, profile); err != nil {
			return err
		}
		return s.SetCustomSlot(ctx, slot, brightness)
	})
}

func runUpload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("upload", "[-slot n] <file>")
	slotArg := a.slotFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return usagef("upload: expected <file>")
	}
	slot, err := checkRange("slot", *slotArg, kbd.SlotCount-1)
	if err != nil {
		return err
	}

	profile, err := readProfileFile(fs.Arg(0))
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(s *kbd.Session) error {
		return s.UploadCustom(ctx, slot, profile)
	})
}

func runActivate(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("activate", "[-slot n] [-b brightness]")
	slotArg := a.slotFlag(fs)
	brightArg := a.brightnessFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return usagef("activate: unexpected argument %q", fs.Arg(0))
	}
	slot, err := checkRange("slot", *slotArg, kbd.SlotCount-1)
	if err != nil {
		return err
	}
	brightness, err := checkRange("brightness", *brightArg, uint(kbd.MaxBrightness))
	if err != nil {
		return err
	}

	return a.withSession(ctx, func(s *kbd.Session) error {
		return s.SetCustomSlot(ctx, slot, brightness)
	})
}

func runDownload(ctx context.Context, a *app, args []string) error {
	fs := a.newFlagSet("download", "[-slot n] <file>")
	slotArg := a.slotFlag(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return usagef("download: expected <file>")
	}
	slot, err := checkRange("slot", *slotArg, kbd.SlotCount-1)
	if err != nil {
		return err
	}

	var profile kbd.Profile
	err = a.withSession(ctx, func(s *kbd.Session) error {
		return s.DownloadCustom(ctx, slot, &profile)
	})
	if err != nil {
		return err
	}
	return writeProfileFile(fs.Arg(0), &profile)
}

// readProfileFile reads exactly one frame from path. Bytes past the frame
// are ignored.
func readProfileFile(path string) (*kbd.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := kbd.ReadProfile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// writeProfileFile replaces path with the frame, via a temporary file in the
// same directory.
func writeProfileFile(path string, p *kbd.Profile) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".fusionkbd-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := p.WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// =============================================================================
// Informational Commands
// =============================================================================

func runList(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return usagef("list: unexpected argument %q", args[0])
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tCODE\tCOLOR")
	for _, p := range kbd.Presets() {
		need := "required"
		if !p.RequiresColor() {
			need = "optional"
		}
		fmt.Fprintf(w, "%s\t0x%02x\t%s\n", p, uint8(p), need)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "COLOR\tCODE\tALIASES")
	for _, c := range kbd.Colors() {
		fmt.Fprintf(w, "%s\t0x%02x\t%s\n", c, uint8(c), strings.Join(kbd.ColorAliases(c), ", "))
	}
	return w.Flush()
}

func runDevices(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return usagef("devices: unexpected argument %q", args[0])
	}

	enum, ok := a.backend().(hal.Enumerator)
	if !ok {
		return fmt.Errorf("backend %s: listing devices: %w", a.cfg.Backend, pkg.ErrNotSupported)
	}
	devs, err := enum.Devices()
	if err != nil {
		return err
	}

	vid, pid := uint16(a.cfg.VendorID), uint16(a.cfg.ProductID)
	names := deviceNames(vid, pid)
	for _, d := range devs {
		printDevice(a.stdout, d, names.Describe(d.VendorID, d.ProductID), d.VendorID == vid && d.ProductID == pid)
	}
	return nil
}

func printDevice(w io.Writer, d hal.DeviceInfo, name string, supported bool) {
	fmt.Fprintf(w, "Bus %03d Device %03d: ID %04x:%04x", d.Bus, d.Address, d.VendorID, d.ProductID)
	if name != "" {
		fmt.Fprintf(w, " %s", name)
	}
	if supported {
		fmt.Fprint(w, " [supported]")
	}
	fmt.Fprintln(w)
}

func runVersion(_ context.Context, a *app, args []string) error {
	if len(args) != 0 {
		return usagef("version: unexpected argument %q", args[0])
	}
	fmt.Fprintf(a.stdout, "fusionkbd %s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(a.stdout, "backends: %s\n", strings.Join(availableBackends(), ", "))
	fmt.Fprintf(a.stdout, "protocol: %s\n", a.proto)
	return nil
}

// Command fusionkbd controls the RGB backlight of the Gigabyte Aero 15X
// Fusion keyboard.
//
// Usage:
//
//	fusionkbd [global flags] <command> [flags] [args]
//
// Commands:
//
//	preset [-s speed] [-b brightness] <preset> [color]
//	custom [-slot n] [-b brightness] <file>
//	upload [-slot n] <file>
//	activate [-slot n] [-b brightness]
//	download [-slot n] <file>
//	list
//	devices
//	version
//
// The "sim" backend runs every command against a simulated keyboard and
// prints the transfers it would have sent.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/host/hal/sim"
	"github.com/ardnew/fusionkbd/internal/config"
	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

// version is set at link time with -ldflags "-X main.version=...".
var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// usageError marks errors caused by the command line rather than the
// device. They exit with status 2.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// globalOptions holds flags accepted before the command name.
type globalOptions struct {
	verbose    bool
	jsonLogs   bool
	configPath string
	backend    string
	protocol   string
	strict     bool
}

// app is one invocation of the tool.
type app struct {
	stdout io.Writer
	stderr io.Writer

	opts  globalOptions
	cfg   *config.Config
	proto kbd.Protocol

	// sim is the simulated keyboard, created on first use of the sim
	// backend. Tests preset it.
	sim *sim.Keyboard
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{stdout: stdout, stderr: stderr}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the exit status.
func (a *app) run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("fusionkbd", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.BoolVar(&a.opts.verbose, "v", false, "Enable debug logging")
	fs.BoolVar(&a.opts.jsonLogs, "json", false, "Output logs as JSON")
	fs.StringVar(&a.opts.configPath, "config", "", "Configuration file (default $XDG_CONFIG_HOME/fusionkbd/config.yaml)")
	fs.StringVar(&a.opts.backend, "backend", "", "USB backend: "+strings.Join(config.Backends(), ", "))
	fs.StringVar(&a.opts.protocol, "protocol", "", "Firmware protocol: legacy, slotted, primed")
	fs.BoolVar(&a.opts.strict, "strict", false, "Treat short interrupt transfers as errors")
	fs.Usage = func() { a.usage(fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() == 0 {
		a.usage(fs)
		return exitUsage
	}

	if err := a.setup(fs); err != nil {
		return a.fail(err)
	}

	name, rest := fs.Arg(0), fs.Args()[1:]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.stderr, "fusionkbd: unknown command %q\n", name)
		a.usage(fs)
		return exitUsage
	}

	pkg.LogDebug(pkg.ComponentCLI, "running command", "command", name, "args", strings.Join(rest, " "))
	if err := cmd.run(ctx, a, rest); err != nil {
		return a.fail(err)
	}
	return exitOK
}

// setup loads the configuration and applies global flags over it.
func (a *app) setup(fs *flag.FlagSet) error {
	path := a.opts.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			pkg.LogDebug(pkg.ComponentConfig, "no config directory", "error", err)
		}
		path = p
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = loaded
	}
	a.cfg = cfg

	if err := a.configureLogging(); err != nil {
		return usagef("%v", err)
	}

	// Flags override the file.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			a.cfg.Backend = a.opts.backend
		case "protocol":
			a.cfg.Protocol = a.opts.protocol
		case "strict":
			a.cfg.StrictTransfers = a.opts.strict
		}
	})

	if _, ok := backendFactories[a.cfg.Backend]; !ok {
		return usagef("backend %q not available in this build (have %s)", a.cfg.Backend, strings.Join(availableBackends(), ", "))
	}
	proto, err := kbd.ProtocolByName(a.cfg.Protocol)
	if err != nil {
		return usagef("%v", err)
	}
	a.proto = proto
	return nil
}

// configureLogging applies log_level and log_format from the configuration
// unless -v or -json override them. Logs go to stderr.
func (a *app) configureLogging() error {
	level, err := pkg.ParseLogLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	format, err := pkg.ParseLogFormat(a.cfg.LogFormat)
	if err != nil {
		return err
	}
	if a.opts.jsonLogs {
		format = pkg.LogFormatJSON
	}

	pkg.SetLogLevel(level)
	if format == pkg.LogFormatJSON {
		pkg.SetLogger(pkg.NewJSONLogger(a.stderr, nil))
	} else {
		pkg.SetLogger(pkg.NewLogger(a.stderr, nil))
	}
	return nil
}

// fail reports err and returns its exit status.
func (a *app) fail(err error) int {
	fmt.Fprintf(a.stderr, "fusionkbd: %v\n", err)

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintln(a.stderr, "Run 'fusionkbd -h' for usage.")
		return exitUsage
	}

	if errors.Is(err, pkg.ErrDeviceNotFound) || errors.Is(err, pkg.ErrAccessDenied) {
		vid, pid := kbd.VendorID, kbd.ProductID
		if a.cfg != nil {
			vid, pid = uint16(a.cfg.VendorID), uint16(a.cfg.ProductID)
		}
		fmt.Fprintf(a.stderr, "hint: check that the keyboard is connected, then run as root or install a udev rule granting access to %04x:%04x\n", vid, pid)
	}
	return exitFailure
}

func (a *app) usage(fs *flag.FlagSet) {
	w := a.stderr
	fmt.Fprintln(w, "Usage: fusionkbd [global flags] <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(w, "  %-9s %s\n", name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global flags:")
	fs.PrintDefaults()
}

// =============================================================================
// Sessions
// =============================================================================

// backend returns the configured hal backend.
func (a *app) backend() hal.Backend {
	return backendFactories[a.cfg.Backend](a)
}

// simKeyboard returns the simulated keyboard, creating it on first use with
// the configured USB identity.
func (a *app) simKeyboard() *sim.Keyboard {
	if a.sim == nil {
		a.sim = sim.New()
		a.sim.VendorID = uint16(a.cfg.VendorID)
		a.sim.ProductID = uint16(a.cfg.ProductID)
	}
	return a.sim
}

// withSession opens the keyboard, runs fn, and closes the session. With the
// sim backend the transfers are printed afterwards.
func (a *app) withSession(ctx context.Context, fn func(*kbd.Session) error) error {
	s, err := kbd.Open(ctx, a.backend(),
		kbd.WithProtocol(a.proto),
		kbd.WithStrictTransfers(a.cfg.StrictTransfers),
		kbd.WithDeviceID(uint16(a.cfg.VendorID), uint16(a.cfg.ProductID)))
	if err != nil {
		return err
	}

	err = fn(s)
	s.Close()

	if a.cfg.Backend == config.BackendSim {
		a.printTransfers()
	}
	return err
}

// printTransfers writes the simulated keyboard's transfer log.
func (a *app) printTransfers() {
	for _, t := range a.simKeyboard().Transfers() {
		switch t.Type {
		case sim.TransferControl:
			fmt.Fprintf(a.stdout, "control   %s  % x\n", t.Setup.String(), t.Data)
		case sim.TransferInterrupt:
			fmt.Fprintf(a.stdout, "interrupt ep=0x%02x len=%d\n", t.Endpoint, len(t.Data))
		}
	}
}

// Package config loads and saves the fusionkbd YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

// Backend names.
const (
	BackendUSBFS  = "usbfs"
	BackendLibUSB = "libusb"
	BackendSim    = "sim"
)

// Backends returns the accepted backend names.
func Backends() []string {
	return []string{BackendUSBFS, BackendLibUSB, BackendSim}
}

// FileName is the configuration file name inside the config directory.
const FileName = "config.yaml"

// HexID is a USB vendor or product ID. It is written as "0x1044". On read,
// a 0x prefix or a quoted string means hexadecimal and a bare integer means
// decimal.
type HexID uint16

// MarshalYAML implements yaml.Marshaler.
func (id HexID) MarshalYAML() (any, error) {
	return fmt.Sprintf("0x%04x", uint16(id)), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (id *HexID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: USB ID must be a scalar", node.Line)
	}
	s := strings.TrimSpace(node.Value)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	} else if node.Tag == "!!str" {
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 16)
	if err != nil {
		return fmt.Errorf("line %d: USB ID %q: %w", node.Line, node.Value, pkg.ErrInvalidParameter)
	}
	*id = HexID(v)
	return nil
}

// Defaults holds the values used when a command line flag is omitted.
type Defaults struct {
	Brightness uint8 `yaml:"brightness"`
	Speed      uint8 `yaml:"speed"`
	Slot       uint8 `yaml:"slot"`
}

// Config is the contents of the configuration file.
type Config struct {
	Backend         string `yaml:"backend"`
	Protocol        string `yaml:"protocol"`
	StrictTransfers bool   `yaml:"strict_transfers"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	VendorID        HexID  `yaml:"vendor_id"`
	ProductID       HexID  `yaml:"product_id"`

	Defaults Defaults `yaml:"defaults"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend:   BackendUSBFS,
		Protocol:  kbd.DefaultProtocol.Name,
		LogLevel:  "warn",
		LogFormat: "text",
		VendorID:  HexID(kbd.VendorID),
		ProductID: HexID(kbd.ProductID),
		Defaults: Defaults{
			Brightness: kbd.DefaultBrightness,
			Speed:      kbd.DefaultSpeed,
			Slot:       0,
		},
	}
}

// DefaultPath returns the per-user configuration file path,
// e.g. ~/.config/fusionkbd/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "fusionkbd", FileName), nil
}

// Load reads the configuration at path. Keys absent from the file keep their
// default values; a missing or empty file yields Default(). Unknown keys are
// rejected. The result is validated.
func Load(path string) (*Config, error) {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			pkg.LogDebug(pkg.ComponentConfig, "no config file, using defaults", "path", path)
			return c, nil
		}
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	pkg.LogDebug(pkg.ComponentConfig, "config loaded", "path", path, "backend", c.Backend, "protocol", c.Protocol)
	return c, nil
}

// Save writes c to path, creating the directory if needed. The file is
// written to a temporary name and renamed into place.
func Save(path string, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	enc := yaml.NewEncoder(tmp)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		tmp.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	pkg.LogDebug(pkg.ComponentConfig, "config saved", "path", path)
	return nil
}

// Validate checks enum values and numeric ranges. All problems are reported
// together; each wraps pkg.ErrInvalidParameter.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{pkg.ErrInvalidParameter}, args...)...))
	}

	if !isBackend(c.Backend) {
		invalid("backend %q (want one of %s)", c.Backend, strings.Join(Backends(), ", "))
	}
	if _, err := kbd.ProtocolByName(c.Protocol); err != nil {
		errs = append(errs, err)
	}
	if _, err := pkg.ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := pkg.ParseLogFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Defaults.Brightness > kbd.MaxBrightness {
		invalid("defaults.brightness %d (max %d)", c.Defaults.Brightness, kbd.MaxBrightness)
	}
	if c.Defaults.Speed > kbd.MaxSpeed {
		invalid("defaults.speed %d (max %d)", c.Defaults.Speed, kbd.MaxSpeed)
	}
	if c.Defaults.Slot >= kbd.SlotCount {
		invalid("defaults.slot %d (max %d)", c.Defaults.Slot, kbd.SlotCount-1)
	}

	return errors.Join(errs...)
}

func isBackend(name string) bool {
	for _, b := range Backends() {
		if name == b {
			return true
		}
	}
	return false
}

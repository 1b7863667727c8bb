//go:build linux

package linux

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/pkg"
)

// =============================================================================
// Backend Implementation
// =============================================================================

// Backend implements hal.Backend and hal.Enumerator for Linux using usbfs.
//
// The zero value uses the system sysfs and devfs roots.
type Backend struct {
	// SysfsRoot is the directory scanned for devices. Defaults to
	// SysfsUSBPath.
	SysfsRoot string

	// DevfsRoot is the directory holding BBB/DDD device nodes. Defaults to
	// DevfsUSBPath.
	DevfsRoot string
}

// New creates a Linux backend using the system paths.
func New() *Backend {
	return &Backend{
		SysfsRoot: SysfsUSBPath,
		DevfsRoot: DevfsUSBPath,
	}
}

func (b *Backend) roots() (string, string) {
	sysfs, devfs := b.SysfsRoot, b.DevfsRoot
	if sysfs == "" {
		sysfs = SysfsUSBPath
	}
	if devfs == "" {
		devfs = DevfsUSBPath
	}
	return sysfs, devfs
}

// Open implements hal.Backend. The first device matching vid:pid is opened
// read/write.
func (b *Backend) Open(ctx context.Context, vid, pid uint16) (hal.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sysfs, devfs := b.roots()
	devices, err := scanUSBDevices(sysfs, devfs)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", sysfs, err)
	}

	for i := range devices {
		info := &devices[i]
		if !info.matches(vid, pid) {
			continue
		}

		fd, err := openDevice(info.devfsPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s: %w", pkg.ErrDeviceNotFound, info.devfsPath, err)
			}
			return nil, fmt.Errorf("%s: %w", info.devfsPath, mapErrno(err))
		}

		pkg.LogDebug(pkg.ComponentHAL, "device opened",
			"path", info.devfsPath,
			"sysfs", info.sysfsPath,
			"speed", info.speed.String())
		return newDevice(fd, info.deviceInfo()), nil
	}

	return nil, pkg.ErrDeviceNotFound
}

// Devices implements hal.Enumerator.
func (b *Backend) Devices() ([]hal.DeviceInfo, error) {
	sysfs, devfs := b.roots()
	devices, err := scanUSBDevices(sysfs, devfs)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", sysfs, err)
	}

	out := make([]hal.DeviceInfo, 0, len(devices))
	for i := range devices {
		out = append(out, devices[i].deviceInfo())
	}
	return out, nil
}

// Ensure Backend implements the hal interfaces.
var (
	_ hal.Backend    = (*Backend)(nil)
	_ hal.Enumerator = (*Backend)(nil)
)

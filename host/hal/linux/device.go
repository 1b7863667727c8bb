//go:build linux

package linux

import (
	"context"
	"fmt"
	"sync"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/pkg"
)

// Device is an open usbfs device node. It implements hal.Device.
//
// Transfers are synchronous ioctls without a timeout. The context is only
// checked before a transfer starts; an ioctl in flight cannot be interrupted.
type Device struct {
	fd   int
	info hal.DeviceInfo

	mu     sync.Mutex
	closed bool
}

// newDevice wraps an open device node.
func newDevice(fd int, info hal.DeviceInfo) *Device {
	return &Device{fd: fd, info: info}
}

// Info returns the sysfs description of the device.
func (d *Device) Info() hal.DeviceInfo {
	return d.info
}

// check returns ErrClosed after Close.
func (d *Device) check() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return pkg.ErrClosed
	}
	return nil
}

func checkInterface(iface uint8) error {
	if iface >= MaxInterfacesPerDevice {
		return fmt.Errorf("%w: interface %d", pkg.ErrInvalidParameter, iface)
	}
	return nil
}

// =============================================================================
// Kernel Driver Binding
// =============================================================================

// KernelDriverActive implements hal.Device. An interface claimed through
// usbfs by another process reports the "usbfs" driver, which is not a
// kernel driver.
func (d *Device) KernelDriverActive(iface uint8) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	if err := checkInterface(iface); err != nil {
		return false, err
	}

	name, err := driverName(d.fd, iface)
	if err != nil {
		if isNoData(err) {
			return false, nil
		}
		return false, mapErrno(err)
	}

	pkg.LogDebug(pkg.ComponentHAL, "interface driver", "iface", iface, "driver", name)
	return name != usbfsDriverName, nil
}

// DetachKernelDriver implements hal.Device.
func (d *Device) DetachKernelDriver(iface uint8) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := checkInterface(iface); err != nil {
		return err
	}
	return mapErrno(disconnectDriver(d.fd, iface))
}

// AttachKernelDriver implements hal.Device.
func (d *Device) AttachKernelDriver(iface uint8) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := checkInterface(iface); err != nil {
		return err
	}
	return mapErrno(connectDriver(d.fd, iface))
}

// =============================================================================
// Interface Claiming
// =============================================================================

// ClaimInterface implements hal.Device.
func (d *Device) ClaimInterface(iface uint8) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := checkInterface(iface); err != nil {
		return err
	}
	return mapErrno(claimInterface(d.fd, iface))
}

// ReleaseInterface implements hal.Device.
func (d *Device) ReleaseInterface(iface uint8) error {
	if err := d.check(); err != nil {
		return err
	}
	if err := checkInterface(iface); err != nil {
		return err
	}
	return mapErrno(releaseInterface(d.fd, iface))
}

// =============================================================================
// Transfers
// =============================================================================

// ControlTransfer implements hal.Device. setup.Length bytes of data are
// transferred; data must be at least that long.
func (d *Device) ControlTransfer(ctx context.Context, setup *hal.SetupPacket, data []byte) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	length := int(setup.Length)
	if length > len(data) {
		return 0, fmt.Errorf("%w: wLength %d, buffer %d", pkg.ErrBufferTooSmall, length, len(data))
	}
	if length > MaxControlTransferSize {
		return 0, fmt.Errorf("%w: wLength %d", pkg.ErrInvalidParameter, length)
	}

	n, err := doControlTransfer(d.fd,
		setup.RequestType,
		setup.Request,
		setup.Value,
		setup.Index,
		data[:length],
		transferTimeoutNone,
	)
	if err != nil {
		return 0, mapErrno(err)
	}
	return n, nil
}

// InterruptTransfer implements hal.Device. The endpoint direction bit
// selects IN or OUT.
func (d *Device) InterruptTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if endpoint&0x0F == 0 {
		return 0, fmt.Errorf("%w: 0x%02x", pkg.ErrInvalidEndpoint, endpoint)
	}

	n, err := doBulkTransfer(d.fd, endpoint, data, transferTimeoutNone)
	if err != nil {
		return 0, mapErrno(err)
	}
	return n, nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close implements hal.Device. The kernel drops any claims still held by the
// file descriptor.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	pkg.LogDebug(pkg.ComponentHAL, "device closed", "path", d.info.Path)
	return mapErrno(closeDevice(d.fd))
}

// Ensure Device implements hal.Device.
var _ hal.Device = (*Device)(nil)

//go:build libusb

package libusb

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/gousb"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/pkg"
)

// =============================================================================
// Backend
// =============================================================================

// Backend implements hal.Backend and hal.Enumerator using libusb.
type Backend struct {
	// DebugLevel is passed to libusb (0 silent, 4 verbose).
	DebugLevel int
}

// New creates a libusb backend.
func New() *Backend {
	return &Backend{}
}

// Open implements hal.Backend. Each device owns its own libusb context,
// released by Device.Close.
func (b *Backend) Open(ctx context.Context, vid, pid uint16) (hal.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	uctx := gousb.NewContext()
	if b.DebugLevel > 0 {
		uctx.Debug(b.DebugLevel)
	}

	dev, err := uctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		uctx.Close()
		return nil, fmt.Errorf("open device: %w", mapError(err))
	}
	if dev == nil {
		uctx.Close()
		return nil, pkg.ErrDeviceNotFound
	}

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		uctx.Close()
		return nil, fmt.Errorf("set auto-detach: %w", mapError(err))
	}
	dev.ControlTimeout = 0

	cfgNum, err := dev.ActiveConfigNum()
	if err != nil {
		dev.Close()
		uctx.Close()
		return nil, fmt.Errorf("active configuration: %w", mapError(err))
	}

	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		uctx.Close()
		return nil, fmt.Errorf("configuration %d: %w", cfgNum, mapError(err))
	}

	pkg.LogDebug(pkg.ComponentHAL, "libusb device opened",
		"bus", dev.Desc.Bus,
		"address", dev.Desc.Address,
		"config", cfgNum)

	return &Device{
		uctx:  uctx,
		dev:   dev,
		cfg:   cfg,
		intfs: make(map[uint8]*gousb.Interface),
		in:    make(map[uint8]*gousb.InEndpoint),
		out:   make(map[uint8]*gousb.OutEndpoint),
	}, nil
}

// Devices implements hal.Enumerator. Devices are listed from their
// descriptors without being opened.
func (b *Backend) Devices() ([]hal.DeviceInfo, error) {
	uctx := gousb.NewContext()
	defer uctx.Close()

	var out []hal.DeviceInfo
	devs, err := uctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		out = append(out, describe(desc))
		return false
	})
	for _, d := range devs {
		d.Close()
	}
	if err != nil {
		return out, mapError(err)
	}
	return out, nil
}

func describe(desc *gousb.DeviceDesc) hal.DeviceInfo {
	path := fmt.Sprintf("%d", desc.Bus)
	for i, p := range desc.Path {
		if i == 0 {
			path += "-"
		} else {
			path += "."
		}
		path += fmt.Sprintf("%d", p)
	}
	return hal.DeviceInfo{
		Bus:       uint8(desc.Bus),
		Address:   uint8(desc.Address),
		VendorID:  uint16(desc.Vendor),
		ProductID: uint16(desc.Product),
		Speed:     convertSpeed(desc.Speed),
		Path:      path,
	}
}

func convertSpeed(s gousb.Speed) hal.Speed {
	switch s {
	case gousb.SpeedLow:
		return hal.SpeedLow
	case gousb.SpeedFull:
		return hal.SpeedFull
	case gousb.SpeedHigh:
		return hal.SpeedHigh
	default:
		return hal.SpeedUnknown
	}
}

// =============================================================================
// Device
// =============================================================================

// Device is an open libusb handle. It implements hal.Device.
type Device struct {
	mu     sync.Mutex
	uctx   *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intfs  map[uint8]*gousb.Interface
	in     map[uint8]*gousb.InEndpoint
	out    map[uint8]*gousb.OutEndpoint
	closed bool
}

// KernelDriverActive implements hal.Device. Auto-detach hides the kernel
// driver from the caller, so this always reports false.
func (d *Device) KernelDriverActive(iface uint8) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, pkg.ErrClosed
	}
	return false, nil
}

// DetachKernelDriver implements hal.Device.
func (d *Device) DetachKernelDriver(iface uint8) error {
	return fmt.Errorf("%w: detach with auto-detach enabled", pkg.ErrNotSupported)
}

// AttachKernelDriver implements hal.Device.
func (d *Device) AttachKernelDriver(iface uint8) error {
	return fmt.Errorf("%w: attach with auto-detach enabled", pkg.ErrNotSupported)
}

// ClaimInterface implements hal.Device. Alternate setting 0 is selected.
func (d *Device) ClaimInterface(iface uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return pkg.ErrClosed
	}
	if _, ok := d.intfs[iface]; ok {
		return nil
	}

	intf, err := d.cfg.Interface(int(iface), 0)
	if err != nil {
		return mapError(err)
	}
	d.intfs[iface] = intf
	return nil
}

// ReleaseInterface implements hal.Device. libusb reattaches the kernel
// driver.
func (d *Device) ReleaseInterface(iface uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return pkg.ErrClosed
	}
	intf, ok := d.intfs[iface]
	if !ok {
		return fmt.Errorf("%w: interface %d not claimed", pkg.ErrInvalidParameter, iface)
	}
	d.dropEndpoints(intf)
	intf.Close()
	delete(d.intfs, iface)
	return nil
}

// ControlTransfer implements hal.Device.
func (d *Device) ControlTransfer(ctx context.Context, setup *hal.SetupPacket, data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, pkg.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	length := int(setup.Length)
	if length > len(data) {
		return 0, fmt.Errorf("%w: wLength %d, buffer %d", pkg.ErrBufferTooSmall, length, len(data))
	}

	n, err := d.dev.Control(setup.RequestType, setup.Request, setup.Value, setup.Index, data[:length])
	if err != nil {
		return n, mapError(err)
	}
	return n, nil
}

// InterruptTransfer implements hal.Device. The endpoint must belong to a
// claimed interface.
func (d *Device) InterruptTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, pkg.ErrClosed
	}

	if hal.IsEndpointIn(endpoint) {
		ep, err := d.inEndpoint(endpoint)
		if err != nil {
			return 0, err
		}
		n, err := ep.ReadContext(ctx, data)
		return n, mapError(err)
	}

	ep, err := d.outEndpoint(endpoint)
	if err != nil {
		return 0, err
	}
	n, err := ep.WriteContext(ctx, data)
	return n, mapError(err)
}

// Close implements hal.Device. Interfaces still claimed are released, which
// also reattaches their kernel drivers.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	for num, intf := range d.intfs {
		intf.Close()
		delete(d.intfs, num)
	}

	var errs error
	if err := d.cfg.Close(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := d.dev.Close(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := d.uctx.Close(); err != nil {
		errs = errors.Join(errs, err)
	}
	return errs
}

// =============================================================================
// Endpoint Lookup
// =============================================================================

// owner returns the claimed interface exposing the endpoint address.
func (d *Device) owner(endpoint uint8) (*gousb.Interface, error) {
	for _, intf := range d.intfs {
		if _, ok := intf.Setting.Endpoints[gousb.EndpointAddress(endpoint)]; ok {
			return intf, nil
		}
	}
	return nil, fmt.Errorf("%w: 0x%02x not on a claimed interface", pkg.ErrInvalidEndpoint, endpoint)
}

func (d *Device) inEndpoint(endpoint uint8) (*gousb.InEndpoint, error) {
	if ep, ok := d.in[endpoint]; ok {
		return ep, nil
	}
	intf, err := d.owner(endpoint)
	if err != nil {
		return nil, err
	}
	ep, err := intf.InEndpoint(int(endpoint & 0x0F))
	if err != nil {
		return nil, mapError(err)
	}
	d.in[endpoint] = ep
	return ep, nil
}

func (d *Device) outEndpoint(endpoint uint8) (*gousb.OutEndpoint, error) {
	if ep, ok := d.out[endpoint]; ok {
		return ep, nil
	}
	intf, err := d.owner(endpoint)
	if err != nil {
		return nil, err
	}
	ep, err := intf.OutEndpoint(int(endpoint & 0x0F))
	if err != nil {
		return nil, mapError(err)
	}
	d.out[endpoint] = ep
	return ep, nil
}

// dropEndpoints forgets cached endpoints of intf.
func (d *Device) dropEndpoints(intf *gousb.Interface) {
	for addr := range intf.Setting.Endpoints {
		delete(d.in, uint8(addr))
		delete(d.out, uint8(addr))
	}
}

// =============================================================================
// Error Mapping
// =============================================================================

// mapError wraps libusb errors with the matching pkg sentinel.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var sentinel error
	var uerr gousb.Error
	var status gousb.TransferStatus
	switch {
	case errors.As(err, &uerr):
		switch uerr {
		case gousb.ErrorAccess:
			sentinel = pkg.ErrAccessDenied
		case gousb.ErrorBusy:
			sentinel = pkg.ErrDeviceBusy
		case gousb.ErrorNoDevice:
			sentinel = pkg.ErrNoDevice
		case gousb.ErrorNotFound:
			sentinel = pkg.ErrDeviceNotFound
		case gousb.ErrorPipe:
			sentinel = pkg.ErrStall
		case gousb.ErrorTimeout:
			sentinel = pkg.ErrTimeout
		case gousb.ErrorInvalidParam:
			sentinel = pkg.ErrInvalidParameter
		case gousb.ErrorNotSupported:
			sentinel = pkg.ErrNotSupported
		}
	case errors.As(err, &status):
		switch status {
		case gousb.TransferStall:
			sentinel = pkg.ErrStall
		case gousb.TransferNoDevice:
			sentinel = pkg.ErrNoDevice
		case gousb.TransferTimedOut:
			sentinel = pkg.ErrTimeout
		}
	}

	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Ensure the libusb types implement the hal interfaces.
var (
	_ hal.Backend    = (*Backend)(nil)
	_ hal.Enumerator = (*Backend)(nil)
	_ hal.Device     = (*Device)(nil)
)

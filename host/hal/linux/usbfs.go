//go:build linux

package linux

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/ardnew/fusionkbd/pkg"
)

// =============================================================================
// Kernel Structures
// =============================================================================

// ctrlTransfer mirrors struct usbdevfs_ctrltransfer.
type ctrlTransfer struct {
	requestType uint8          // bmRequestType
	request     uint8          // bRequest
	value       uint16         // wValue
	index       uint16         // wIndex
	length      uint16         // wLength
	timeout     uint32         // Timeout in milliseconds, 0 waits forever
	data        unsafe.Pointer // Data buffer
}

// bulkTransfer mirrors struct usbdevfs_bulktransfer. usbfs routes it to
// interrupt endpoints as well.
type bulkTransfer struct {
	endpoint uint32         // Endpoint address
	length   uint32         // Data length
	timeout  uint32         // Timeout in milliseconds, 0 waits forever
	data     unsafe.Pointer // Data buffer
}

// getDriver mirrors struct usbdevfs_getdriver.
type getDriver struct {
	iface  uint32
	driver [driverNameSize]byte
}

// ifaceIoctl mirrors struct usbdevfs_ioctl, used to pass DISCONNECT and
// CONNECT to one interface.
type ifaceIoctl struct {
	ifno int32
	code int32
	data unsafe.Pointer
}

// =============================================================================
// Raw Syscall Wrappers
// =============================================================================

// openDevice opens a USB device node for read/write access.
func openDevice(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
}

// closeDevice closes a device file descriptor.
func closeDevice(fd int) error {
	return unix.Close(fd)
}

// ioctlPtr performs an ioctl whose argument is a pointer and returns the
// syscall result.
func ioctlPtr(fd int, req uintptr, arg unsafe.Pointer) (int, error) {
	r, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
	if errno != 0 {
		return int(r), errno
	}
	return int(r), nil
}

// =============================================================================
// USBDEVFS Operations
// =============================================================================

// doControlTransfer performs a synchronous control transfer. The data stage
// length is len(data).
func doControlTransfer(fd int, reqType, req uint8, value, index uint16, data []byte, timeout uint32) (int, error) {
	ctrl := ctrlTransfer{
		requestType: reqType,
		request:     req,
		value:       value,
		index:       index,
		length:      uint16(len(data)),
		timeout:     timeout,
	}
	if len(data) > 0 {
		ctrl.data = unsafe.Pointer(&data[0])
	}

	n, err := ioctlPtr(fd, ioctlUsbdevfsControl, unsafe.Pointer(&ctrl))
	runtime.KeepAlive(data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// doBulkTransfer performs a synchronous bulk or interrupt transfer.
func doBulkTransfer(fd int, endpoint uint8, data []byte, timeout uint32) (int, error) {
	bulk := bulkTransfer{
		endpoint: uint32(endpoint),
		length:   uint32(len(data)),
		timeout:  timeout,
	}
	if len(data) > 0 {
		bulk.data = unsafe.Pointer(&data[0])
	}

	n, err := ioctlPtr(fd, ioctlUsbdevfsBulk, unsafe.Pointer(&bulk))
	runtime.KeepAlive(data)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// claimInterface claims exclusive access to an interface.
func claimInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	_, err := ioctlPtr(fd, ioctlUsbdevfsClaimInterface, unsafe.Pointer(&ifaceNum))
	return err
}

// releaseInterface releases a previously claimed interface.
func releaseInterface(fd int, iface uint8) error {
	ifaceNum := uint32(iface)
	_, err := ioctlPtr(fd, ioctlUsbdevfsReleaseInterface, unsafe.Pointer(&ifaceNum))
	return err
}

// driverName returns the name of the driver bound to an interface. ENODATA
// means no driver is bound.
func driverName(fd int, iface uint8) (string, error) {
	gd := getDriver{iface: uint32(iface)}
	if _, err := ioctlPtr(fd, ioctlUsbdevfsGetDriver, unsafe.Pointer(&gd)); err != nil {
		return "", err
	}
	name := gd.driver[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(name), nil
}

// disconnectDriver unbinds the kernel driver from an interface.
func disconnectDriver(fd int, iface uint8) error {
	cmd := ifaceIoctl{ifno: int32(iface), code: int32(ioctlUsbdevfsDisconnect)}
	_, err := ioctlPtr(fd, ioctlUsbdevfsIoctl, unsafe.Pointer(&cmd))
	return err
}

// connectDriver asks the kernel to probe drivers for an interface again.
func connectDriver(fd int, iface uint8) error {
	cmd := ifaceIoctl{ifno: int32(iface), code: int32(ioctlUsbdevfsConnect)}
	_, err := ioctlPtr(fd, ioctlUsbdevfsIoctl, unsafe.Pointer(&cmd))
	return err
}

// =============================================================================
// Error Mapping
// =============================================================================

// mapErrno translates a usbfs errno into the package error taxonomy. The
// errno stays in the chain so callers can still match it.
func mapErrno(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}

	var sentinel error
	switch errno {
	case unix.EACCES, unix.EPERM:
		sentinel = pkg.ErrAccessDenied
	case unix.EBUSY:
		sentinel = pkg.ErrDeviceBusy
	case unix.ENODEV, unix.ESHUTDOWN:
		sentinel = pkg.ErrNoDevice
	case unix.EPIPE:
		sentinel = pkg.ErrStall
	case unix.ENODATA:
		sentinel = pkg.ErrNoDriver
	case unix.ETIMEDOUT:
		sentinel = pkg.ErrTimeout
	case unix.EINVAL:
		sentinel = pkg.ErrInvalidParameter
	default:
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// isNoData returns true if the error indicates no driver is bound (ENODATA).
func isNoData(err error) bool {
	return errors.Is(err, unix.ENODATA)
}

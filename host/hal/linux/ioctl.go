//go:build linux

package linux

import "unsafe"

// ioc constructs an ioctl number from direction, type, number, and size.
// The field widths come from the per-architecture iocSizeBits and
// iocDirBits.
func ioc(dir, typ, nr, size uintptr) uintptr {
	return (dir << iocDirShift) | (typ << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

// ior constructs a read ioctl number.
func ior(typ, nr, size uintptr) uintptr {
	return ioc(iocRead, typ, nr, size)
}

// iow constructs a write ioctl number.
func iow(typ, nr, size uintptr) uintptr {
	return ioc(iocWrite, typ, nr, size)
}

// iowr constructs a read/write ioctl number.
func iowr(typ, nr, size uintptr) uintptr {
	return ioc(iocRead|iocWrite, typ, nr, size)
}

// ioNoArg constructs an ioctl number with no data transfer.
func ioNoArg(typ, nr uintptr) uintptr {
	return ioc(iocNone, typ, nr, 0)
}

const (
	iocNRBits   = 8
	iocTypeBits = 8

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits
)

// usbdevfs ioctl type character.
const usbdevfsType = 'U'

// usbdevfs ioctl command numbers.
const (
	usbdevfsNrControl          = 0
	usbdevfsNrBulk             = 2
	usbdevfsNrGetDriver        = 8
	usbdevfsNrClaimInterface   = 15
	usbdevfsNrReleaseInterface = 16
	usbdevfsNrIoctl            = 18
	usbdevfsNrDisconnect       = 22
	usbdevfsNrConnect          = 23
)

// usbdevfs ioctl request numbers, sized from the Go mirrors of the kernel
// structures so they are correct for the build architecture.
var (
	ioctlUsbdevfsControl          = iowr(usbdevfsType, usbdevfsNrControl, unsafe.Sizeof(ctrlTransfer{}))
	ioctlUsbdevfsBulk             = iowr(usbdevfsType, usbdevfsNrBulk, unsafe.Sizeof(bulkTransfer{}))
	ioctlUsbdevfsGetDriver        = iow(usbdevfsType, usbdevfsNrGetDriver, unsafe.Sizeof(getDriver{}))
	ioctlUsbdevfsClaimInterface   = ior(usbdevfsType, usbdevfsNrClaimInterface, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsReleaseInterface = ior(usbdevfsType, usbdevfsNrReleaseInterface, unsafe.Sizeof(uint32(0)))
	ioctlUsbdevfsIoctl            = iowr(usbdevfsType, usbdevfsNrIoctl, unsafe.Sizeof(ifaceIoctl{}))
	ioctlUsbdevfsDisconnect       = ioNoArg(usbdevfsType, usbdevfsNrDisconnect)
	ioctlUsbdevfsConnect          = ioNoArg(usbdevfsType, usbdevfsNrConnect)
)

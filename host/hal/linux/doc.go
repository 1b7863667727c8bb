// Package linux provides a hal.Backend for Linux using usbfs.
//
// Devices are discovered in sysfs (/sys/bus/usb/devices/) and opened through
// their usbfs node (/dev/bus/usb/BBB/DDD). All transfers are synchronous
// ioctls issued with golang.org/x/sys/unix; no cgo is required.
//
// # Requirements
//
// The user running the application needs read/write access to the device
// node. This typically requires either running as root or a udev rule
// granting access to the user or a group:
//
//	SUBSYSTEM=="usb", ATTRS{idVendor}=="1044", ATTRS{idProduct}=="7a39", MODE="0660", GROUP="plugdev"
//
// # Kernel Drivers
//
// usbhid binds to the keyboard's interfaces. Detaching uses
// USBDEVFS_DISCONNECT and reattaching uses USBDEVFS_CONNECT, both routed
// to a single interface through USBDEVFS_IOCTL.
//
// # Errors
//
// errno values are wrapped with the matching pkg sentinel (EACCES and EPERM
// become pkg.ErrAccessDenied, EBUSY pkg.ErrDeviceBusy, ENODEV
// pkg.ErrNoDevice, EPIPE pkg.ErrStall). The errno remains in the chain.
package linux

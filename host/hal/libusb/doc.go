// Package libusb provides a hal.Backend on top of libusb-1.0 through
// github.com/google/gousb.
//
// The package requires cgo and is only compiled with the "libusb" build tag:
//
//	go build -tags libusb ./cmd/fusionkbd
//
// libusb's automatic kernel driver detach is enabled on every handle: the
// driver is detached when an interface is claimed and reattached when it is
// released. KernelDriverActive therefore always reports false, and the
// explicit detach and attach calls return pkg.ErrNotSupported.
package libusb

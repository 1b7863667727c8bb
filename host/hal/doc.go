// Package hal defines the USB access layer used by the keyboard session.
//
// The layer covers what one keyboard session needs: open a device by vendor
// and product ID, manage kernel driver binding and interface claims, and
// perform blocking control and interrupt transfers. Everything
// protocol-specific lives above it in package kbd.
//
// # Interface Overview
//
//   - [Backend] opens a [Device] by VID/PID
//   - [Device] exposes the per-handle operations
//   - [Enumerator] is optionally implemented by backends that can list
//     attached devices
//
// # Implementations
//
//   - [github.com/ardnew/fusionkbd/host/hal/linux]: Linux usbfs, no cgo
//   - [github.com/ardnew/fusionkbd/host/hal/libusb]: libusb via gousb
//     (build tag "libusb")
//   - [github.com/ardnew/fusionkbd/host/hal/sim]: in-memory simulated
//     keyboard for tests and dry runs
//
// # Implementing a Backend
//
//	type MyBackend struct{}
//
//	func (MyBackend) Open(ctx context.Context, vid, pid uint16) (hal.Device, error) {
//	    // locate and open the device node
//	    return dev, nil
//	}
//
// Transfers must block until completion. A zero timeout is used throughout:
// a transfer that never completes blocks the caller indefinitely.
package hal

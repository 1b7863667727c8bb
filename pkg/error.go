package pkg

import (
	"errors"
	"fmt"
)

// Device acquisition errors.
var (
	// ErrDeviceNotFound indicates no device matched the vendor/product pair.
	ErrDeviceNotFound = errors.New("device not found")

	// ErrDeviceBusy indicates an interface is claimed by another process or
	// driver.
	ErrDeviceBusy = errors.New("device busy")

	// ErrAccessDenied indicates insufficient privileges for the device node.
	ErrAccessDenied = errors.New("access denied")

	// ErrNoDriver indicates no kernel driver is bound to an interface.
	ErrNoDriver = errors.New("no kernel driver bound")
)

// Keyboard protocol errors.
var (
	// ErrInvalidSlot indicates a custom slot index outside 0-4.
	ErrInvalidSlot = errors.New("invalid custom slot")

	// ErrTransfer indicates a control or interrupt transfer failed.
	ErrTransfer = errors.New("transfer failed")

	// ErrShortTransfer indicates a transfer moved fewer bytes than expected.
	ErrShortTransfer = errors.New("short transfer")

	// ErrUnknownPreset indicates a preset name with no device code.
	ErrUnknownPreset = errors.New("unknown preset name")

	// ErrUnknownColor indicates a color name with no device code.
	ErrUnknownColor = errors.New("unknown color name")
)

// USB transport errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrTimeout indicates a transfer timeout.
	ErrTimeout = errors.New("transfer timeout")

	// ErrNoDevice indicates the device is not present.
	ErrNoDevice = errors.New("device not present")

	// ErrInvalidEndpoint indicates an invalid endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrClosed indicates use of a released session or handle.
	ErrClosed = errors.New("handle closed")
)

// TransferError reports which transfer of a multi-transfer sequence failed.
type TransferError struct {
	Op   string // High-level operation, e.g. "upload custom"
	Step string // Transfer within the sequence, e.g. "chunk 3"
	Err  error  // Underlying transport error
}

// Error implements the error interface.
func (e *TransferError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Step, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransfer.
func (e *TransferError) Is(target error) bool {
	return target == ErrTransfer
}

// ShortTransferError reports a transfer that completed with fewer bytes than
// requested.
type ShortTransferError struct {
	Op   string
	Step string
	Want int
	Got  int
}

// Error implements the error interface.
func (e *ShortTransferError) Error() string {
	return fmt.Sprintf("%s: %s: short transfer: %d of %d bytes", e.Op, e.Step, e.Got, e.Want)
}

// Is reports whether target is ErrShortTransfer.
func (e *ShortTransferError) Is(target error) bool {
	return target == ErrShortTransfer
}

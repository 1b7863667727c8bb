package hal

import (
	"context"
	"fmt"
)

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return "Unknown"
	}
}

// bmRequestType fields (USB 2.0 Specification, Table 9-2).
const (
	RequestDirectionOut uint8 = 0x00 // Host to device
	RequestDirectionIn  uint8 = 0x80 // Device to host

	RequestTypeStandard uint8 = 0x00
	RequestTypeClass    uint8 = 0x20
	RequestTypeVendor   uint8 = 0x40

	RequestRecipientDevice    uint8 = 0x00
	RequestRecipientInterface uint8 = 0x01
	RequestRecipientEndpoint  uint8 = 0x02
	RequestRecipientOther     uint8 = 0x03
)

// RequestType combines direction, type and recipient into a bmRequestType.
func RequestType(direction, typ, recipient uint8) uint8 {
	return direction&0x80 | typ&0x60 | recipient&0x1F
}

// SetupPacket represents a USB SETUP packet in the HAL layer.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// IsIn returns true for device-to-host requests.
func (s *SetupPacket) IsIn() bool {
	return s.RequestType&RequestDirectionIn != 0
}

// String returns a compact description for logging.
func (s *SetupPacket) String() string {
	return fmt.Sprintf("bmRequestType=0x%02x bRequest=0x%02x wValue=0x%04x wIndex=0x%04x wLength=%d",
		s.RequestType, s.Request, s.Value, s.Index, s.Length)
}

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// MarshalTo writes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	buf[2] = byte(s.Value)
	buf[3] = byte(s.Value >> 8)
	buf[4] = byte(s.Index)
	buf[5] = byte(s.Index >> 8)
	buf[6] = byte(s.Length)
	buf[7] = byte(s.Length >> 8)
	return SetupPacketSize
}

// EndpointDirectionIn is the direction bit of an IN endpoint address.
const EndpointDirectionIn uint8 = 0x80

// EndpointIn returns the IN endpoint address for endpoint number n.
func EndpointIn(n uint8) uint8 {
	return n&0x0F | EndpointDirectionIn
}

// EndpointOut returns the OUT endpoint address for endpoint number n.
func EndpointOut(n uint8) uint8 {
	return n & 0x0F
}

// IsEndpointIn returns true if addr is an IN (device to host) endpoint.
func IsEndpointIn(addr uint8) bool {
	return addr&EndpointDirectionIn != 0
}

// DeviceInfo describes a device found by an [Enumerator].
type DeviceInfo struct {
	Bus       uint8
	Address   uint8
	VendorID  uint16
	ProductID uint16
	Speed     Speed
	Path      string // Backend-specific node path, if any
}

// Backend opens devices on a USB access layer.
type Backend interface {
	// Open returns a handle to the first device matching vid and pid.
	// Returns an error wrapping pkg.ErrDeviceNotFound when no device matches.
	Open(ctx context.Context, vid, pid uint16) (Device, error)
}

// Enumerator is implemented by backends that can list attached devices.
type Enumerator interface {
	Devices() ([]DeviceInfo, error)
}

// Device is an open handle to a single USB device.
//
// Transfers block until the transport completes them. Implementations are
// not required to be safe for concurrent use.
type Device interface {
	// KernelDriverActive reports whether a kernel driver is bound to iface.
	KernelDriverActive(iface uint8) (bool, error)

	// DetachKernelDriver unbinds the kernel driver from iface.
	DetachKernelDriver(iface uint8) error

	// AttachKernelDriver rebinds the kernel driver to iface.
	AttachKernelDriver(iface uint8) error

	// ClaimInterface claims exclusive access to iface.
	ClaimInterface(iface uint8) error

	// ReleaseInterface releases a previously claimed iface.
	ReleaseInterface(iface uint8) error

	// ControlTransfer performs a control transfer on endpoint 0.
	// For OUT requests, data contains the data stage to send.
	// For IN requests, data is filled with received data.
	// Returns the number of bytes transferred in the data stage.
	ControlTransfer(ctx context.Context, setup *SetupPacket, data []byte) (int, error)

	// InterruptTransfer performs an interrupt transfer to/from endpoint.
	// The direction is taken from bit 7 of the endpoint address.
	// Returns the number of bytes transferred.
	InterruptTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error)

	// Close releases the handle. It does not release claimed interfaces.
	Close() error
}

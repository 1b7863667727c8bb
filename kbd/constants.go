package kbd

import "github.com/ardnew/fusionkbd/host/hal"

// USB identity of the Fusion RGB keyboard (Gigabyte Aero 15X).
const (
	VendorID  uint16 = 0x1044
	ProductID uint16 = 0x7a39
)

// Interfaces claimed by a session, in claim order.
var sessionInterfaces = [...]uint8{0, 3}

// Control request used for every header (HID SET_REPORT, feature report 0 on
// interface 3).
const (
	reportRequest uint8  = 0x09
	reportValue   uint16 = 0x0300
	reportIndex   uint16 = 0x0003
)

// reportRequestType is host-to-device, class, interface.
var reportRequestType = hal.RequestType(
	hal.RequestDirectionOut,
	hal.RequestTypeClass,
	hal.RequestRecipientInterface,
)

// Custom frame transfer endpoints.
const (
	profileEndpointNum uint8 = 6
	profileEndpointOut       = profileEndpointNum
	profileEndpointIn        = profileEndpointNum | hal.EndpointDirectionIn
)

// Custom slot limits.
const (
	// SlotCount is the number of on-device custom profile slots.
	SlotCount = 5

	// customModeBase is the preset mode code of custom slot 0; slots occupy
	// 0x33 through 0x37.
	customModeBase uint8 = 0x33
)

// Human-supplied parameter bounds enforced by the CLI.
const (
	MaxBrightness uint8 = 50
	MaxSpeed      uint8 = 10

	DefaultBrightness uint8 = MaxBrightness / 3
	DefaultSpeed      uint8 = 5
)

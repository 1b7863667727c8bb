//go:build linux

package linux

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/fusionkbd/host/hal"
)

// =============================================================================
// USB Device Information
// =============================================================================

// usbDeviceInfo holds information about a USB device discovered via sysfs.
type usbDeviceInfo struct {
	sysfsPath string    // Path under the sysfs root
	devfsPath string    // Path under the devfs root
	busNum    uint8     // Bus number
	devNum    uint8     // Device number
	vendorID  uint16    // USB Vendor ID
	productID uint16    // USB Product ID
	speed     hal.Speed // Device speed
}

// deviceInfo converts to the hal representation.
func (d *usbDeviceInfo) deviceInfo() hal.DeviceInfo {
	return hal.DeviceInfo{
		Bus:       d.busNum,
		Address:   d.devNum,
		VendorID:  d.vendorID,
		ProductID: d.productID,
		Speed:     d.speed,
		Path:      d.devfsPath,
	}
}

// matches reports whether the device has the given identity.
func (d *usbDeviceInfo) matches(vid, pid uint16) bool {
	return d.vendorID == vid && d.productID == pid
}

// =============================================================================
// Sysfs Parsing
// =============================================================================

// scanUSBDevices scans sysfsRoot for USB devices. Device node paths are
// built under devfsRoot.
func scanUSBDevices(sysfsRoot, devfsRoot string) ([]usbDeviceInfo, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return nil, err
	}

	var devices []usbDeviceInfo

	for _, entry := range entries {
		name := entry.Name()

		// Interface entries look like "1-1:1.0"; root hubs are "usbN".
		// Root hubs are kept so bus enumeration matches lsusb.
		if strings.Contains(name, ":") {
			continue
		}

		devPath := filepath.Join(sysfsRoot, name)
		info, err := parseUSBDevice(devPath, devfsRoot)
		if err != nil {
			continue // Skip devices we can't parse
		}

		devices = append(devices, info)
	}

	return devices, nil
}

// parseUSBDevice parses USB device information from sysfs.
func parseUSBDevice(sysfsPath, devfsRoot string) (usbDeviceInfo, error) {
	info := usbDeviceInfo{
		sysfsPath: sysfsPath,
	}

	busNum, err := readSysfsUint8(filepath.Join(sysfsPath, "busnum"))
	if err != nil {
		return info, err
	}
	info.busNum = busNum

	devNum, err := readSysfsUint8(filepath.Join(sysfsPath, "devnum"))
	if err != nil {
		return info, err
	}
	info.devNum = devNum

	info.devfsPath = formatDevfsPath(devfsRoot, info.busNum, info.devNum)

	// Identity is required; a device without it cannot be matched.
	vendorID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idVendor"))
	if err != nil {
		return info, err
	}
	info.vendorID = vendorID

	productID, err := readSysfsHexUint16(filepath.Join(sysfsPath, "idProduct"))
	if err != nil {
		return info, err
	}
	info.productID = productID

	speedStr, err := readSysfsString(filepath.Join(sysfsPath, "speed"))
	if err == nil {
		info.speed = parseSpeed(speedStr)
	}

	return info, nil
}

// =============================================================================
// Sysfs Read Helpers
// =============================================================================

// readSysfsString reads a string from a sysfs attribute file.
func readSysfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// readSysfsUint8 reads an unsigned decimal uint8 from a sysfs attribute file.
func readSysfsUint8(path string) (uint8, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// readSysfsHex reads a hexadecimal value from a sysfs attribute file.
func readSysfsHex(path string, bitSize int) (uint64, error) {
	s, err := readSysfsString(path)
	if err != nil {
		return 0, err
	}
	s = strings.TrimPrefix(s, "0x")
	return strconv.ParseUint(s, 16, bitSize)
}

// readSysfsHexUint16 reads a hexadecimal uint16 from a sysfs attribute file.
func readSysfsHexUint16(path string) (uint16, error) {
	v, err := readSysfsHex(path, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// =============================================================================
// Path Helpers
// =============================================================================

// formatDevfsPath constructs a device node path from bus and device numbers:
// root/BBB/DDD with both numbers zero-padded to three digits.
func formatDevfsPath(root string, busNum, devNum uint8) string {
	buf := make([]byte, 0, len(root)+8)
	buf = append(buf, root...)
	buf = append(buf, '/')
	buf = appendPadded(buf, busNum, 3)
	buf = append(buf, '/')
	buf = appendPadded(buf, devNum, 3)
	return string(buf)
}

// appendPadded appends val zero-padded to width digits.
func appendPadded(buf []byte, val uint8, width int) []byte {
	s := strconv.FormatUint(uint64(val), 10)
	for i := len(s); i < width; i++ {
		buf = append(buf, '0')
	}
	return append(buf, s...)
}

// =============================================================================
// Speed Parsing
// =============================================================================

// parseSpeed converts a sysfs speed string to a hal.Speed value.
func parseSpeed(s string) hal.Speed {
	switch s {
	case "1.5":
		return hal.SpeedLow
	case "12":
		return hal.SpeedFull
	case "480":
		return hal.SpeedHigh
	default:
		return hal.SpeedUnknown
	}
}

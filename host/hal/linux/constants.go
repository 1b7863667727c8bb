package linux

// =============================================================================
// System Paths
// =============================================================================

// SysfsUSBPath is the base path for USB devices in sysfs.
const SysfsUSBPath = "/sys/bus/usb/devices"

// DevfsUSBPath is the base path for USB device nodes.
const DevfsUSBPath = "/dev/bus/usb"

// =============================================================================
// Limits
// =============================================================================

// MaxInterfacesPerDevice is the maximum number of interfaces per device.
const MaxInterfacesPerDevice = 32

// MaxControlTransferSize is the maximum size for control transfer data phase.
const MaxControlTransferSize = 4096

// driverNameSize is the size of the driver name buffer in
// struct usbdevfs_getdriver.
const driverNameSize = 256

// usbfsDriverName is the name reported for an interface claimed through
// usbfs. It does not count as a kernel driver.
const usbfsDriverName = "usbfs"

// =============================================================================
// Timeouts
// =============================================================================

// transferTimeoutNone disables the usbfs transfer timeout; the ioctl blocks
// until the transfer completes or the device goes away.
const transferTimeoutNone = 0

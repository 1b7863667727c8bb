//go:build linux

// Package usbid provides access to the USB ID database for looking up vendor
// and product names.
//
// The USB ID database is a standard file maintained by the USB Implementers
// Forum and distributed with most Linux systems. It maps USB vendor IDs (VID)
// and product IDs (PID) to human-readable names.
//
// The devices command uses it to name every device it lists. The package
// searches common database locations and caches the names in memory.
//
// # Usage
//
// Load the database once at startup:
//
//	db := usbid.New()
//	db.Load()
//
// Then look up vendor and product names:
//
//	vendorName := db.LookupVendor(0x1234)
//	productName := db.LookupProduct(0x1234, 0x5678)
//	display := db.Describe(0x1234, 0x5678) // "Vendor Product"
//
// Devices missing from the system database, such as the Fusion keyboard,
// can be named with Add. Parse reads usb.ids content from any reader.
//
// # Database Locations
//
// The package searches for the USB ID database in these locations:
//
//   - /usr/share/hwdata/usb.ids
//   - /var/lib/usbutils/usb.ids
//   - /usr/share/misc/usb.ids
//
// If the database file is not found, lookup methods return empty strings.
//
// # Thread Safety
//
// All methods are safe for concurrent use. The database uses read-write locks
// to allow concurrent lookups while protecting against concurrent loads.
package usbid

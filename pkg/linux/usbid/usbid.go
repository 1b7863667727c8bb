//go:build linux

package usbid

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// DefaultPaths lists the standard locations for the USB ID database.
var DefaultPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// Database caches vendor and product names from the USB ID database.
type Database struct {
	vendors  map[uint16]string // VID -> vendor name
	products map[uint32]string // (VID<<16)|PID -> product name
	loaded   bool
	source   string // Path the names were read from
	mu       sync.RWMutex
	paths    []string
}

// New creates a new USB ID database that searches the default paths.
func New() *Database {
	return NewWithPaths(DefaultPaths)
}

// NewWithPaths creates a new USB ID database that searches the specified paths.
func NewWithPaths(paths []string) *Database {
	return &Database{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
		paths:    paths,
	}
}

func productKey(vid, pid uint16) uint32 {
	return (uint32(vid) << 16) | uint32(pid)
}

// Load parses the first database file found. This method is idempotent -
// subsequent calls do nothing if the database is already loaded.
//
// Returns true if a database file was read (now or earlier), false if none
// could be found.
func (db *Database) Load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.loaded {
		return db.source != ""
	}

	// Mark as loaded even if file not found to prevent repeated searches
	db.loaded = true

	for _, path := range db.paths {
		file, err := os.Open(path)
		if err != nil {
			continue
		}
		err = db.parse(file)
		file.Close()
		if err == nil {
			db.source = path
			return true
		}
	}
	return false
}

// Parse reads names in usb.ids format from r, adding to any already known.
func (db *Database) Parse(r io.Reader) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.loaded = true
	return db.parse(r)
}

// parse reads the usb.ids format. Vendor lines are "xxxx  Vendor Name";
// product lines are "\txxxx  Product Name". Interface lines (two tabs) and
// the class sections after the vendor list are ignored.
func (db *Database) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	var currentVID uint16
	inVendor := false

	for scanner.Scan() {
		line := scanner.Text()

		if len(line) == 0 || line[0] == '#' {
			continue
		}

		if line[0] == '\t' {
			if !inVendor {
				continue
			}
			id, name, ok := splitEntry(line[1:])
			if !ok {
				continue
			}
			db.products[productKey(currentVID, id)] = name
			continue
		}

		id, name, ok := splitEntry(line)
		if !ok {
			// Class sections ("C 03  Human Interface Device") end the
			// vendor list.
			inVendor = false
			continue
		}
		currentVID = id
		inVendor = true
		db.vendors[id] = name
	}
	return scanner.Err()
}

// splitEntry splits "xxxx  Name" into its hex ID and name.
func splitEntry(line string) (uint16, string, bool) {
	if len(line) < 6 || line[4] != ' ' {
		return 0, "", false
	}
	id, err := strconv.ParseUint(line[:4], 16, 16)
	if err != nil {
		return 0, "", false
	}
	name := strings.TrimSpace(line[5:])
	if name == "" {
		return 0, "", false
	}
	return uint16(id), name, true
}

// Add registers names for a device, overriding database entries. An empty
// vendor leaves the vendor name unchanged.
func (db *Database) Add(vid, pid uint16, vendor, product string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if vendor != "" {
		db.vendors[vid] = vendor
	}
	if product != "" {
		db.products[productKey(vid, pid)] = product
	}
}

// LookupVendor returns the vendor name for the given VID.
// Returns an empty string if the vendor is not found or if the database
// has not been loaded.
func (db *Database) LookupVendor(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

// LookupProduct returns the product name for the given VID/PID combination.
// Returns an empty string if the product is not found or if the database
// has not been loaded.
func (db *Database) LookupProduct(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[productKey(vid, pid)]
}

// Describe returns "Vendor Product" for display, using whichever names are
// known, or "" if neither is.
func (db *Database) Describe(vid, pid uint16) string {
	vendor := db.LookupVendor(vid)
	product := db.LookupProduct(vid, pid)
	switch {
	case vendor != "" && product != "":
		return vendor + " " + product
	case product != "":
		return product
	default:
		return vendor
	}
}

// Source returns the path the database was loaded from, or "".
func (db *Database) Source() string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.source
}

// IsLoaded returns true if the database has been loaded (or load was attempted).
func (db *Database) IsLoaded() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.loaded
}

// VendorCount returns the number of vendors in the database.
func (db *Database) VendorCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.vendors)
}

// ProductCount returns the number of products in the database.
func (db *Database) ProductCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.products)
}

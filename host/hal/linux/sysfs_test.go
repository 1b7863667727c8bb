//go:build linux

package linux

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/fusionkbd/host/hal"
)

// fakeDevice describes one device directory in a fake sysfs tree.
type fakeDevice struct {
	name      string
	busnum    string
	devnum    string
	idVendor  string
	idProduct string
	speed     string
}

// writeSysfs creates a fake sysfs tree under a temp dir and returns its root.
func writeSysfs(t *testing.T, devices ...fakeDevice) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range devices {
		dir := filepath.Join(root, d.name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		attrs := map[string]string{
			"busnum":    d.busnum,
			"devnum":    d.devnum,
			"idVendor":  d.idVendor,
			"idProduct": d.idProduct,
			"speed":     d.speed,
		}
		for name, val := range attrs {
			if val == "" {
				continue
			}
			if err := os.WriteFile(filepath.Join(dir, name), []byte(val+"\n"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	return root
}

var fusion = fakeDevice{
	name:      "1-3",
	busnum:    "1",
	devnum:    "4",
	idVendor:  "1044",
	idProduct: "7a39",
	speed:     "12",
}

// =============================================================================
// appendPadded Tests
// =============================================================================

func TestAppendPadded(t *testing.T) {
	tests := []struct {
		val      uint8
		width    int
		expected string
	}{
		{0, 3, "000"},
		{1, 3, "001"},
		{12, 3, "012"},
		{123, 3, "123"},
		{0, 1, "0"},
		{9, 1, "9"},
		{255, 3, "255"},
		{255, 1, "255"},
	}

	for _, tt := range tests {
		got := string(appendPadded(nil, tt.val, tt.width))
		if got != tt.expected {
			t.Errorf("appendPadded(%d, %d) = %q, want %q", tt.val, tt.width, got, tt.expected)
		}
	}
}

// =============================================================================
// formatDevfsPath Tests
// =============================================================================

func TestFormatDevfsPath(t *testing.T) {
	tests := []struct {
		root     string
		busNum   uint8
		devNum   uint8
		expected string
	}{
		{DevfsUSBPath, 1, 1, "/dev/bus/usb/001/001"},
		{DevfsUSBPath, 1, 123, "/dev/bus/usb/001/123"},
		{DevfsUSBPath, 12, 34, "/dev/bus/usb/012/034"},
		{"/tmp/x", 255, 255, "/tmp/x/255/255"},
	}

	for _, tt := range tests {
		got := formatDevfsPath(tt.root, tt.busNum, tt.devNum)
		if got != tt.expected {
			t.Errorf("formatDevfsPath(%q, %d, %d) = %q, want %q",
				tt.root, tt.busNum, tt.devNum, got, tt.expected)
		}
	}
}

// =============================================================================
// parseSpeed Tests
// =============================================================================

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		input    string
		expected hal.Speed
	}{
		{"1.5", hal.SpeedLow},
		{"12", hal.SpeedFull},
		{"480", hal.SpeedHigh},
		{"", hal.SpeedUnknown},
		{"5000", hal.SpeedUnknown}, // SuperSpeed not supported
		{"invalid", hal.SpeedUnknown},
	}

	for _, tt := range tests {
		got := parseSpeed(tt.input)
		if got != tt.expected {
			t.Errorf("parseSpeed(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

// =============================================================================
// Sysfs Scan Tests
// =============================================================================

func TestScanUSBDevices(t *testing.T) {
	root := writeSysfs(t,
		fusion,
		fakeDevice{name: "usb1", busnum: "1", devnum: "1", idVendor: "1d6b", idProduct: "0002", speed: "480"},
		fakeDevice{name: "1-3:1.0"},                       // interface directory
		fakeDevice{name: "2-1", busnum: "2", devnum: "7"}, // no identity
		fakeDevice{name: "2-2", busnum: "x", devnum: "1", idVendor: "1234", idProduct: "5678"},
	)

	devices, err := scanUSBDevices(root, "/dev/bus/usb")
	if err != nil {
		t.Fatalf("scanUSBDevices() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2: %+v", len(devices), devices)
	}

	var found *usbDeviceInfo
	for i := range devices {
		if devices[i].matches(0x1044, 0x7a39) {
			found = &devices[i]
		}
	}
	if found == nil {
		t.Fatal("keyboard not found")
	}

	info := found.deviceInfo()
	want := hal.DeviceInfo{
		Bus:       1,
		Address:   4,
		VendorID:  0x1044,
		ProductID: 0x7a39,
		Speed:     hal.SpeedFull,
		Path:      "/dev/bus/usb/001/004",
	}
	if info != want {
		t.Errorf("deviceInfo() = %+v, want %+v", info, want)
	}
	if found.sysfsPath != filepath.Join(root, "1-3") {
		t.Errorf("sysfsPath = %q", found.sysfsPath)
	}
}

func TestScanUSBDevices_MissingRoot(t *testing.T) {
	_, err := scanUSBDevices(filepath.Join(t.TempDir(), "nope"), DevfsUSBPath)
	if !os.IsNotExist(err) {
		t.Errorf("scanUSBDevices() error = %v, want not-exist", err)
	}
}

func TestReadSysfsHexUint16(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		content string
		want    uint16
		wantErr bool
	}{
		{"1044\n", 0x1044, false},
		{"0x7a39", 0x7a39, false},
		{"  ffff  ", 0xffff, false},
		{"10000", 0, true},
		{"zz", 0, true},
	}

	for i, tt := range tests {
		path := filepath.Join(dir, string(rune('a'+i)))
		if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
			t.Fatal(err)
		}
		got, err := readSysfsHexUint16(path)
		if (err != nil) != tt.wantErr {
			t.Errorf("readSysfsHexUint16(%q) error = %v, wantErr %v", tt.content, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("readSysfsHexUint16(%q) = 0x%04x, want 0x%04x", tt.content, got, tt.want)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkFormatDevfsPath(b *testing.B) {
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = formatDevfsPath(DevfsUSBPath, uint8(i%256), uint8((i+1)%256))
	}
}

func BenchmarkParseSpeed(b *testing.B) {
	speeds := []string{"1.5", "12", "480", "5000"}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = parseSpeed(speeds[i%4])
	}
}

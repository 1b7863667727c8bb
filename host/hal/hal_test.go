package hal

import (
	"testing"
)

// =============================================================================
// Speed Tests
// =============================================================================

func TestSpeed_String(t *testing.T) {
	tests := []struct {
		speed    Speed
		expected string
	}{
		{SpeedUnknown, "Unknown"},
		{SpeedLow, "Low Speed"},
		{SpeedFull, "Full Speed"},
		{SpeedHigh, "High Speed"},
		{Speed(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.speed.String(); got != tt.expected {
				t.Errorf("Speed(%d).String() = %q, want %q", tt.speed, got, tt.expected)
			}
		})
	}
}

// =============================================================================
// RequestType Tests
// =============================================================================

func TestRequestType(t *testing.T) {
	tests := []struct {
		name      string
		direction uint8
		typ       uint8
		recipient uint8
		expected  uint8
	}{
		{"class interface out", RequestDirectionOut, RequestTypeClass, RequestRecipientInterface, 0x21},
		{"class interface in", RequestDirectionIn, RequestTypeClass, RequestRecipientInterface, 0xA1},
		{"standard device in", RequestDirectionIn, RequestTypeStandard, RequestRecipientDevice, 0x80},
		{"vendor endpoint out", RequestDirectionOut, RequestTypeVendor, RequestRecipientEndpoint, 0x42},
		{"stray bits masked", 0xFF, 0xFF, 0xFF, 0xFF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RequestType(tt.direction, tt.typ, tt.recipient); got != tt.expected {
				t.Errorf("RequestType() = 0x%02X, want 0x%02X", got, tt.expected)
			}
		})
	}
}

// =============================================================================
// SetupPacket Tests
// =============================================================================

func TestParseSetupPacket(t *testing.T) {
	data := []byte{
		0x21,       // RequestType (Host-to-Device, Class, Interface)
		0x09,       // Request (SET_REPORT)
		0x00, 0x03, // Value (Feature report 0)
		0x03, 0x00, // Index (interface 3)
		0x08, 0x00, // Length (8)
	}

	var setup SetupPacket
	if !ParseSetupPacket(data, &setup) {
		t.Fatal("ParseSetupPacket returned false")
	}

	if setup.RequestType != 0x21 {
		t.Errorf("RequestType = 0x%02X, want 0x21", setup.RequestType)
	}
	if setup.Request != 0x09 {
		t.Errorf("Request = 0x%02X, want 0x09", setup.Request)
	}
	if setup.Value != 0x0300 {
		t.Errorf("Value = 0x%04X, want 0x0300", setup.Value)
	}
	if setup.Index != 0x0003 {
		t.Errorf("Index = 0x%04X, want 0x0003", setup.Index)
	}
	if setup.Length != 0x0008 {
		t.Errorf("Length = 0x%04X, want 0x0008", setup.Length)
	}
	if setup.IsIn() {
		t.Error("IsIn() = true for host-to-device request")
	}
}

func TestParseSetupPacket_TooShort(t *testing.T) {
	data := make([]byte, SetupPacketSize-1)
	var setup SetupPacket
	if ParseSetupPacket(data, &setup) {
		t.Error("ParseSetupPacket should return false for short data")
	}
}

func TestSetupPacket_MarshalTo(t *testing.T) {
	setup := SetupPacket{
		RequestType: 0x80,
		Request:     0x06,
		Value:       0x0100,
		Index:       0x0409,
		Length:      0x00FF,
	}

	buf := make([]byte, SetupPacketSize)
	n := setup.MarshalTo(buf)

	if n != SetupPacketSize {
		t.Errorf("MarshalTo returned %d, want %d", n, SetupPacketSize)
	}

	expected := []byte{0x80, 0x06, 0x00, 0x01, 0x09, 0x04, 0xFF, 0x00}
	for i, b := range expected {
		if buf[i] != b {
			t.Errorf("buf[%d] = 0x%02X, want 0x%02X", i, buf[i], b)
		}
	}
}

func TestSetupPacket_MarshalTo_TooSmall(t *testing.T) {
	setup := SetupPacket{}
	buf := make([]byte, SetupPacketSize-1)

	n := setup.MarshalTo(buf)
	if n != 0 {
		t.Errorf("MarshalTo to small buffer returned %d, want 0", n)
	}
}

func TestSetupPacket_String(t *testing.T) {
	setup := SetupPacket{RequestType: 0x21, Request: 0x09, Value: 0x0300, Index: 0x0003, Length: 8}
	want := "bmRequestType=0x21 bRequest=0x09 wValue=0x0300 wIndex=0x0003 wLength=8"
	if got := setup.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

// =============================================================================
// Endpoint Address Tests
// =============================================================================

func TestEndpointAddress(t *testing.T) {
	tests := []struct {
		n       uint8
		wantIn  uint8
		wantOut uint8
	}{
		{0, 0x80, 0x00},
		{1, 0x81, 0x01},
		{6, 0x86, 0x06},
		{15, 0x8F, 0x0F},
		{0x86, 0x86, 0x06}, // Direction bit is ignored on input
	}

	for _, tt := range tests {
		if got := EndpointIn(tt.n); got != tt.wantIn {
			t.Errorf("EndpointIn(0x%02X) = 0x%02X, want 0x%02X", tt.n, got, tt.wantIn)
		}
		if got := EndpointOut(tt.n); got != tt.wantOut {
			t.Errorf("EndpointOut(0x%02X) = 0x%02X, want 0x%02X", tt.n, got, tt.wantOut)
		}
		if !IsEndpointIn(EndpointIn(tt.n)) {
			t.Errorf("IsEndpointIn(EndpointIn(0x%02X)) = false", tt.n)
		}
		if IsEndpointIn(EndpointOut(tt.n)) {
			t.Errorf("IsEndpointIn(EndpointOut(0x%02X)) = true", tt.n)
		}
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkParseSetupPacket(b *testing.B) {
	data := []byte{0x21, 0x09, 0x00, 0x03, 0x03, 0x00, 0x08, 0x00}
	var setup SetupPacket

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseSetupPacket(data, &setup)
	}
}

func BenchmarkSetupPacket_MarshalTo(b *testing.B) {
	setup := SetupPacket{
		RequestType: 0x21,
		Request:     0x09,
		Value:       0x0300,
		Index:       0x0003,
		Length:      0x0008,
	}
	buf := make([]byte, SetupPacketSize)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		setup.MarshalTo(buf)
	}
}

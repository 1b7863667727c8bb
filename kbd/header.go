package kbd

import "fmt"

// Kind selects the purpose of a control transfer.
type Kind uint8

// Header kinds.
const (
	KindPreset       Kind = 0x08 // Select a built-in preset or a custom slot
	KindCustomConfig Kind = 0x12 // Upload a custom frame; interrupt OUT follows
	KindReadConfig   Kind = 0x92 // Read back a custom frame; interrupt IN follows
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPreset:
		return "preset"
	case KindCustomConfig:
		return "custom-config"
	case KindReadConfig:
		return "read-config"
	default:
		return fmt.Sprintf("kind(0x%02x)", uint8(k))
	}
}

// HeaderSize is the wire size of a Header.
const HeaderSize = 8

// Header is the 8-byte command carried by every control transfer.
//
// Fields are declared in wire order; serialization never depends on the
// in-memory layout.
type Header struct {
	Kind        Kind
	Reserved    uint8
	Mode        uint8 // Preset code, custom slot mode code, or slot index
	SpeedLength uint8 // Effect speed, or number of 64-byte chunks to follow
	Brightness  uint8
	Color       uint8
	Reserved2   uint8
	Checksum    uint8
}

// NewHeader builds a header with zeroed reserved bytes and a valid checksum.
// Arguments are not range checked.
func NewHeader(kind Kind, mode, speedLength, brightness, color uint8) Header {
	h := Header{
		Kind:        kind,
		Mode:        mode,
		SpeedLength: speedLength,
		Brightness:  brightness,
		Color:       color,
	}
	b := h.Bytes()
	h.Checksum = Checksum(b[:])
	return h
}

// Checksum returns the one's complement of the wrapping sum of the first
// seven bytes of b. Shorter input sums what is present.
func Checksum(b []byte) uint8 {
	var sum uint8
	for i := 0; i < len(b) && i < HeaderSize-1; i++ {
		sum += b[i]
	}
	return ^sum
}

// Bytes returns the wire representation.
func (h Header) Bytes() [HeaderSize]byte {
	return [HeaderSize]byte{
		uint8(h.Kind),
		h.Reserved,
		h.Mode,
		h.SpeedLength,
		h.Brightness,
		h.Color,
		h.Reserved2,
		h.Checksum,
	}
}

// MarshalTo writes the header to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (h Header) MarshalTo(buf []byte) int {
	if len(buf) < HeaderSize {
		return 0
	}
	b := h.Bytes()
	return copy(buf, b[:])
}

// ParseHeader parses raw bytes into a Header.
// Returns false if data is too short. The checksum is not verified; see
// [Header.Valid].
func ParseHeader(data []byte, out *Header) bool {
	if len(data) < HeaderSize {
		return false
	}
	out.Kind = Kind(data[0])
	out.Reserved = data[1]
	out.Mode = data[2]
	out.SpeedLength = data[3]
	out.Brightness = data[4]
	out.Color = data[5]
	out.Reserved2 = data[6]
	out.Checksum = data[7]
	return true
}

// Valid reports whether the checksum matches and reserved bytes are zero.
func (h Header) Valid() bool {
	b := h.Bytes()
	return h.Reserved == 0 && h.Reserved2 == 0 && Checksum(b[:]) == h.Checksum
}

// String returns the header as hex bytes.
func (h Header) String() string {
	b := h.Bytes()
	return fmt.Sprintf("% x", b[:])
}

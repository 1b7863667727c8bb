package kbd

import (
	"fmt"
	"strings"

	"github.com/ardnew/fusionkbd/pkg"
)

// PresetSequence produces the headers that switch the keyboard to a
// built-in preset. Each header becomes one control transfer, in order.
type PresetSequence interface {
	Name() string
	Headers(p Preset, speed, brightness uint8, c Color) []Header
}

// SlotPolicy maps a requested custom slot to the slot the firmware is
// addressed with.
type SlotPolicy interface {
	Name() string
	Resolve(slot uint8) uint8
}

// DirectPreset encodes the preset in a single control transfer.
type DirectPreset struct{}

// Name implements PresetSequence.
func (DirectPreset) Name() string { return "direct" }

// Headers implements PresetSequence.
func (DirectPreset) Headers(p Preset, speed, brightness uint8, c Color) []Header {
	return []Header{presetHeader(p, speed, brightness, c)}
}

// PrimedPreset first selects custom slot 0 and then the preset. Some
// firmware revisions ignore a preset change unless a slot selection
// precedes it; the slot selection is immediately overridden.
type PrimedPreset struct{}

// Name implements PresetSequence.
func (PrimedPreset) Name() string { return "primed" }

// Headers implements PresetSequence.
func (PrimedPreset) Headers(p Preset, speed, brightness uint8, c Color) []Header {
	return []Header{
		customSlotHeader(0, brightness),
		presetHeader(p, speed, brightness, c),
	}
}

// RequestedSlot addresses the slot the caller asked for.
type RequestedSlot struct{}

// Name implements SlotPolicy.
func (RequestedSlot) Name() string { return "requested" }

// Resolve implements SlotPolicy.
func (RequestedSlot) Resolve(slot uint8) uint8 { return slot }

// FixedSlot addresses one slot regardless of the request, for firmware that
// exposes a single custom frame.
type FixedSlot uint8

// Name implements SlotPolicy.
func (f FixedSlot) Name() string { return fmt.Sprintf("fixed-%d", uint8(f)) }

// Resolve implements SlotPolicy.
func (f FixedSlot) Resolve(uint8) uint8 { return uint8(f) }

// Protocol is the set of sequencing choices for one firmware revision.
type Protocol struct {
	Name     string
	Preset   PresetSequence
	Slots    SlotPolicy
	ReadBack bool // Supports reading custom frames with KindReadConfig
}

// Known protocol revisions.
var (
	// ProtocolLegacy is the earliest revision: single-transfer presets and
	// a single custom frame.
	ProtocolLegacy = Protocol{
		Name:   "legacy",
		Preset: DirectPreset{},
		Slots:  FixedSlot(0),
	}

	// ProtocolSlotted adds the five custom slots.
	ProtocolSlotted = Protocol{
		Name:   "slotted",
		Preset: DirectPreset{},
		Slots:  RequestedSlot{},
	}

	// ProtocolPrimed primes preset changes and supports read-back.
	ProtocolPrimed = Protocol{
		Name:     "primed",
		Preset:   PrimedPreset{},
		Slots:    RequestedSlot{},
		ReadBack: true,
	}

	// DefaultProtocol is used when none is configured. The primed sequence
	// is a superset of the direct one, so it works on every revision.
	DefaultProtocol = ProtocolPrimed
)

// Protocols returns the known protocols.
func Protocols() []Protocol {
	return []Protocol{ProtocolLegacy, ProtocolSlotted, ProtocolPrimed}
}

// ProtocolByName resolves a protocol by name, ignoring case.
func ProtocolByName(name string) (Protocol, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Protocols() {
		if p.Name == key {
			return p, nil
		}
	}
	return Protocol{}, fmt.Errorf("%w: protocol %q", pkg.ErrInvalidParameter, name)
}

// String returns a description of the protocol's strategies.
func (p Protocol) String() string {
	return fmt.Sprintf("%s (preset=%s slots=%s readback=%t)",
		p.Name, p.Preset.Name(), p.Slots.Name(), p.ReadBack)
}

func presetHeader(p Preset, speed, brightness uint8, c Color) Header {
	return NewHeader(KindPreset, uint8(p), speed, brightness, uint8(c))
}

func customSlotHeader(slot, brightness uint8) Header {
	return NewHeader(KindPreset, customModeBase+slot, 0, brightness, 0)
}

func uploadHeader(slot uint8) Header {
	return NewHeader(KindCustomConfig, slot, ChunkCount, 0, 0)
}

func readHeader(slot uint8) Header {
	return NewHeader(KindReadConfig, slot, ChunkCount, 0, 0)
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/kbd"
	"github.com/ardnew/fusionkbd/pkg"
)

// NumInterfaces is the number of interfaces the simulated keyboard exposes.
const NumInterfaces = 4

// Errors specific to the simulator.
var (
	ErrNotClaimed   = errors.New("interface not claimed")
	ErrNotOpen      = errors.New("device not open")
	ErrBadRequest   = errors.New("unexpected control request")
	ErrBadChecksum  = errors.New("header checksum mismatch")
	ErrNoSequence   = errors.New("no transfer sequence pending")
	ErrBadInterface = errors.New("no such interface")
)

// TransferType distinguishes recorded transfers.
type TransferType uint8

// Recorded transfer types.
const (
	TransferControl TransferType = iota
	TransferInterrupt
)

// String returns the transfer type name.
func (t TransferType) String() string {
	switch t {
	case TransferControl:
		return "control"
	case TransferInterrupt:
		return "interrupt"
	default:
		return "unknown"
	}
}

// Transfer is one recorded transfer. Data holds a copy of the bytes that
// crossed the bus: sent for OUT, returned for IN.
type Transfer struct {
	Type     TransferType
	Setup    hal.SetupPacket // Control only
	Endpoint uint8           // Interrupt only
	Data     []byte
}

// State is the lighting mode last selected on the keyboard.
type State struct {
	Mode       uint8
	Speed      uint8
	Brightness uint8
	Color      uint8
}

// CustomSlot returns the active custom slot, if the mode is one.
func (s State) CustomSlot() (uint8, bool) {
	if s.Mode >= 0x33 && s.Mode < 0x33+kbd.SlotCount {
		return s.Mode - 0x33, true
	}
	return 0, false
}

// Faults injects failures. Map keys are interface numbers; Control and
// Interrupt are keyed by the zero-based index of the transfer of that type.
type Faults struct {
	Open        error
	DriverQuery map[uint8]error
	Detach      map[uint8]error
	Claim       map[uint8]error
	Release     map[uint8]error
	Attach      map[uint8]error
	Control     map[int]error
	Interrupt   map[int]error

	// ShortInterrupt truncates the interrupt transfer at the given index to
	// the given length.
	ShortInterrupt map[int]int
}

// sequence tracks an upload or read-back in progress.
type sequence struct {
	kind   kbd.Kind
	slot   uint8
	chunks int
	next   int
}

// Keyboard is an in-memory Fusion keyboard. It implements [hal.Backend],
// [hal.Enumerator] and, once opened, [hal.Device].
//
// Headers are decoded and acted upon: presets change State, uploads fill
// slots, and read-back requests serve them.
type Keyboard struct {
	VendorID  uint16
	ProductID uint16

	// Faults is consulted on every operation. Set before use.
	Faults Faults

	mu        sync.Mutex
	present   bool
	open      bool
	drivers   [NumInterfaces]bool
	claimed   [NumInterfaces]bool
	state     State
	slots     [kbd.SlotCount]kbd.Profile
	pending   *sequence
	transfers []Transfer
	calls     []string
	nControl  int
	nIntr     int
}

// New returns a plugged-in keyboard with the HID driver bound to every
// interface.
func New() *Keyboard {
	k := &Keyboard{
		VendorID:  kbd.VendorID,
		ProductID: kbd.ProductID,
		present:   true,
	}
	for i := range k.drivers {
		k.drivers[i] = true
	}
	return k
}

// =============================================================================
// Test Controls
// =============================================================================

// Unplug removes the keyboard; Open reports it missing afterwards.
func (k *Keyboard) Unplug() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.present = false
}

// SetDriverBound sets whether a kernel driver is bound to iface.
func (k *Keyboard) SetDriverBound(iface uint8, bound bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if int(iface) < NumInterfaces {
		k.drivers[iface] = bound
	}
}

// DriverBound reports whether a kernel driver is bound to iface.
func (k *Keyboard) DriverBound(iface uint8) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return int(iface) < NumInterfaces && k.drivers[iface]
}

// Claimed reports whether iface is claimed through the open handle.
func (k *Keyboard) Claimed(iface uint8) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return int(iface) < NumInterfaces && k.claimed[iface]
}

// IsOpen reports whether a handle is open.
func (k *Keyboard) IsOpen() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.open
}

// SetSlot stores a frame directly in a slot.
func (k *Keyboard) SetSlot(slot uint8, p kbd.Profile) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.slots[slot] = p
}

// Slot returns the frame stored in a slot.
func (k *Keyboard) Slot(slot uint8) kbd.Profile {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.slots[slot]
}

// State returns the lighting mode last selected.
func (k *Keyboard) State() State {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// Transfers returns a copy of the recorded transfers.
func (k *Keyboard) Transfers() []Transfer {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]Transfer, len(k.transfers))
	copy(out, k.transfers)
	return out
}

// Calls returns the handle operations in order, e.g. "detach 0", "claim 3".
func (k *Keyboard) Calls() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.calls))
	copy(out, k.calls)
	return out
}

// Reset clears recorded transfers and calls.
func (k *Keyboard) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.transfers = nil
	k.calls = nil
	k.nControl = 0
	k.nIntr = 0
}

// =============================================================================
// hal.Backend / hal.Enumerator
// =============================================================================

// Open implements hal.Backend.
func (k *Keyboard) Open(ctx context.Context, vid, pid uint16) (hal.Device, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, "open")
	if k.Faults.Open != nil {
		return nil, k.Faults.Open
	}
	if !k.present || vid != k.VendorID || pid != k.ProductID {
		return nil, fmt.Errorf("%w: %04x:%04x", pkg.ErrDeviceNotFound, vid, pid)
	}
	if k.open {
		return nil, pkg.ErrDeviceBusy
	}
	k.open = true
	pkg.LogDebug(pkg.ComponentSim, "device opened", "vid", vid, "pid", pid)
	return k, nil
}

// Devices implements hal.Enumerator.
func (k *Keyboard) Devices() ([]hal.DeviceInfo, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.present {
		return nil, nil
	}
	return []hal.DeviceInfo{{
		Bus:       1,
		Address:   1,
		VendorID:  k.VendorID,
		ProductID: k.ProductID,
		Speed:     hal.SpeedFull,
		Path:      "sim",
	}}, nil
}

// =============================================================================
// hal.Device
// =============================================================================

// KernelDriverActive implements hal.Device.
func (k *Keyboard) KernelDriverActive(iface uint8) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if err := k.checkInterface(iface); err != nil {
		return false, err
	}
	if err := k.Faults.DriverQuery[iface]; err != nil {
		return false, err
	}
	return k.drivers[iface], nil
}

// DetachKernelDriver implements hal.Device.
func (k *Keyboard) DetachKernelDriver(iface uint8) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, fmt.Sprintf("detach %d", iface))
	if err := k.checkInterface(iface); err != nil {
		return err
	}
	if err := k.Faults.Detach[iface]; err != nil {
		return err
	}
	if !k.drivers[iface] {
		return pkg.ErrNoDriver
	}
	k.drivers[iface] = false
	return nil
}

// AttachKernelDriver implements hal.Device.
func (k *Keyboard) AttachKernelDriver(iface uint8) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, fmt.Sprintf("attach %d", iface))
	if err := k.checkInterface(iface); err != nil {
		return err
	}
	if err := k.Faults.Attach[iface]; err != nil {
		return err
	}
	if k.claimed[iface] {
		return pkg.ErrDeviceBusy
	}
	k.drivers[iface] = true
	return nil
}

// ClaimInterface implements hal.Device.
func (k *Keyboard) ClaimInterface(iface uint8) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, fmt.Sprintf("claim %d", iface))
	if err := k.checkInterface(iface); err != nil {
		return err
	}
	if err := k.Faults.Claim[iface]; err != nil {
		return err
	}
	if k.drivers[iface] {
		return pkg.ErrDeviceBusy
	}
	k.claimed[iface] = true
	return nil
}

// ReleaseInterface implements hal.Device.
func (k *Keyboard) ReleaseInterface(iface uint8) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, fmt.Sprintf("release %d", iface))
	if err := k.checkInterface(iface); err != nil {
		return err
	}
	if err := k.Faults.Release[iface]; err != nil {
		return err
	}
	if !k.claimed[iface] {
		return ErrNotClaimed
	}
	k.claimed[iface] = false
	return nil
}

// ControlTransfer implements hal.Device. Only the keyboard's SET_REPORT
// request is understood.
func (k *Keyboard) ControlTransfer(ctx context.Context, setup *hal.SetupPacket, data []byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.nControl
	k.nControl++

	if err := k.checkInterface(uint8(setup.Index)); err != nil {
		return 0, err
	}
	if !k.claimed[uint8(setup.Index)] {
		return 0, ErrNotClaimed
	}
	if err := k.Faults.Control[idx]; err != nil {
		return 0, err
	}

	k.transfers = append(k.transfers, Transfer{
		Type:  TransferControl,
		Setup: *setup,
		Data:  append([]byte(nil), data...),
	})

	if setup.RequestType != 0x21 || setup.Request != 0x09 || setup.Value != 0x0300 {
		return 0, fmt.Errorf("%w: %s", ErrBadRequest, setup)
	}

	var h kbd.Header
	if !kbd.ParseHeader(data, &h) {
		return 0, fmt.Errorf("%w: %d byte header", pkg.ErrBufferTooSmall, len(data))
	}
	if !h.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrBadChecksum, h)
	}
	k.apply(h)

	pkg.LogInfo(pkg.ComponentSim, "control transfer", "kind", h.Kind.String(), "header", h.String())
	return kbd.HeaderSize, nil
}

// InterruptTransfer implements hal.Device. OUT transfers to endpoint 6 are
// accepted while an upload is pending; IN transfers from endpoint 0x86 are
// served while a read-back is pending.
func (k *Keyboard) InterruptTransfer(ctx context.Context, endpoint uint8, data []byte) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	idx := k.nIntr
	k.nIntr++

	if !k.open {
		return 0, ErrNotOpen
	}
	if !k.claimed[3] {
		return 0, ErrNotClaimed
	}
	if endpoint&0x0F != 6 {
		return 0, fmt.Errorf("%w: 0x%02x", pkg.ErrInvalidEndpoint, endpoint)
	}
	if err := k.Faults.Interrupt[idx]; err != nil {
		return 0, err
	}

	n := len(data)
	if short, ok := k.Faults.ShortInterrupt[idx]; ok && short < n {
		n = short
	}

	seq := k.pending
	in := hal.IsEndpointIn(endpoint)
	switch {
	case seq == nil:
		return 0, ErrNoSequence
	case in && seq.kind != kbd.KindReadConfig, !in && seq.kind != kbd.KindCustomConfig:
		return 0, fmt.Errorf("%w: endpoint 0x%02x during %s", ErrNoSequence, endpoint, seq.kind)
	}

	if n > kbd.ChunkSize {
		n = kbd.ChunkSize
	}
	chunk := k.slots[seq.slot].Chunk(seq.next)
	if in {
		copy(data[:n], chunk)
	} else {
		copy(chunk, data[:n])
	}

	k.transfers = append(k.transfers, Transfer{
		Type:     TransferInterrupt,
		Endpoint: endpoint,
		Data:     append([]byte(nil), data[:n]...),
	})
	pkg.LogDebug(pkg.ComponentSim, "interrupt transfer", "endpoint", endpoint, "chunk", seq.next, "bytes", n)

	seq.next++
	if seq.next >= seq.chunks {
		k.pending = nil
	}
	return n, nil
}

// Close implements hal.Device. Closing a handle drops its claims, as the
// kernel does for a usbfs file.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.calls = append(k.calls, "close")
	if !k.open {
		return ErrNotOpen
	}
	k.open = false
	k.pending = nil
	for i := range k.claimed {
		k.claimed[i] = false
	}
	return nil
}

// =============================================================================
// Internal
// =============================================================================

func (k *Keyboard) checkInterface(iface uint8) error {
	if !k.open {
		return ErrNotOpen
	}
	if int(iface) >= NumInterfaces {
		return fmt.Errorf("%w: %d", ErrBadInterface, iface)
	}
	return nil
}

// apply updates keyboard state for a decoded header.
func (k *Keyboard) apply(h kbd.Header) {
	switch h.Kind {
	case kbd.KindPreset:
		k.pending = nil
		k.state = State{
			Mode:       h.Mode,
			Speed:      h.SpeedLength,
			Brightness: h.Brightness,
			Color:      h.Color,
		}
	case kbd.KindCustomConfig, kbd.KindReadConfig:
		k.pending = nil
		if h.Mode < kbd.SlotCount && h.SpeedLength > 0 && int(h.SpeedLength) <= kbd.ChunkCount {
			k.pending = &sequence{
				kind:   h.Kind,
				slot:   h.Mode,
				chunks: int(h.SpeedLength),
			}
		}
	}
}

// Ensure Keyboard implements the hal interfaces.
var (
	_ hal.Backend    = (*Keyboard)(nil)
	_ hal.Enumerator = (*Keyboard)(nil)
	_ hal.Device     = (*Keyboard)(nil)
)

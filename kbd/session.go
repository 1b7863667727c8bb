package kbd

import (
	"context"
	"fmt"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/pkg"
)

// Session is exclusive access to one keyboard: an open device handle with
// interfaces 0 and 3 claimed.
//
// A Session is not safe for concurrent use. Close must be called on every
// exit path to hand the interfaces back to the kernel driver.
type Session struct {
	dev    hal.Device
	proto  Protocol
	strict bool
	vid    uint16
	pid    uint16

	claimed  []uint8 // Interfaces claimed, in claim order
	detached []uint8 // Interfaces whose kernel driver we detached
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithProtocol selects the firmware protocol revision.
func WithProtocol(p Protocol) Option {
	return func(s *Session) {
		s.proto = p
	}
}

// WithStrictTransfers makes a short interrupt transfer abort an upload
// instead of being logged and skipped.
func WithStrictTransfers(strict bool) Option {
	return func(s *Session) {
		s.strict = strict
	}
}

// WithDeviceID overrides the USB vendor and product ID to open.
func WithDeviceID(vid, pid uint16) Option {
	return func(s *Session) {
		s.vid = vid
		s.pid = pid
	}
}

// Open opens the keyboard on backend and claims its interfaces, detaching
// any kernel driver bound to them first.
//
// On failure every interface already claimed is released, every driver
// already detached is reattached, and the device handle is closed.
func Open(ctx context.Context, backend hal.Backend, opts ...Option) (*Session, error) {
	s := &Session{
		proto: DefaultProtocol,
		vid:   VendorID,
		pid:   ProductID,
	}
	for _, opt := range opts {
		opt(s)
	}

	dev, err := backend.Open(ctx, s.vid, s.pid)
	if err != nil {
		return nil, fmt.Errorf("open %04x:%04x: %w", s.vid, s.pid, err)
	}
	s.dev = dev

	for _, iface := range sessionInterfaces {
		if err := s.acquire(iface); err != nil {
			s.Close()
			return nil, err
		}
	}

	pkg.LogDebug(pkg.ComponentSession, "session opened",
		"vid", fmt.Sprintf("0x%04x", s.vid),
		"pid", fmt.Sprintf("0x%04x", s.pid),
		"protocol", s.proto.Name,
		"detached", fmt.Sprint(s.detached))
	return s, nil
}

// acquire detaches the kernel driver from iface if one is bound, then
// claims iface.
func (s *Session) acquire(iface uint8) error {
	active, err := s.dev.KernelDriverActive(iface)
	if err != nil {
		return fmt.Errorf("interface %d: query kernel driver: %w", iface, err)
	}
	if active {
		if err := s.dev.DetachKernelDriver(iface); err != nil {
			return fmt.Errorf("interface %d: detach kernel driver: %w", iface, err)
		}
		s.detached = append(s.detached, iface)
	}
	if err := s.dev.ClaimInterface(iface); err != nil {
		return fmt.Errorf("interface %d: claim: %w", iface, err)
	}
	s.claimed = append(s.claimed, iface)
	return nil
}

// Close releases the claimed interfaces, reattaches the kernel drivers the
// session detached, and closes the device handle. Failures are logged and
// otherwise ignored. Close always returns nil and is safe to call twice.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	for _, iface := range s.claimed {
		if err := s.dev.ReleaseInterface(iface); err != nil {
			pkg.LogDebug(pkg.ComponentSession, "release interface failed", "iface", iface, "error", err)
		}
	}
	for _, iface := range s.detached {
		if err := s.dev.AttachKernelDriver(iface); err != nil {
			pkg.LogDebug(pkg.ComponentSession, "reattach kernel driver failed", "iface", iface, "error", err)
		}
	}
	if err := s.dev.Close(); err != nil {
		pkg.LogDebug(pkg.ComponentSession, "close device failed", "error", err)
	}
	s.claimed = nil
	s.detached = nil

	pkg.LogDebug(pkg.ComponentSession, "session closed")
	return nil
}

// Protocol returns the protocol revision in use.
func (s *Session) Protocol() Protocol {
	return s.proto
}

// =============================================================================
// Lighting Operations
// =============================================================================

// SetPreset switches the keyboard to a built-in effect. Arguments are sent
// as given; callers are expected to have validated speed and brightness.
func (s *Session) SetPreset(ctx context.Context, p Preset, speed, brightness uint8, c Color) error {
	const op = "set preset"

	headers := s.proto.Preset.Headers(p, speed, brightness, c)
	for i, h := range headers {
		step := "preset"
		if i < len(headers)-1 {
			step = fmt.Sprintf("priming %d", i)
		}
		if err := s.sendHeader(ctx, op, step, h); err != nil {
			return err
		}
	}

	pkg.LogInfo(pkg.ComponentSession, "preset applied",
		"preset", p.String(),
		"color", c.String(),
		"speed", speed,
		"brightness", brightness)
	return nil
}

// UploadCustom stores a frame in custom slot (0-4). It does not activate the
// slot; see SetCustomSlot.
//
// A short chunk is logged and the upload continues unless the session was
// opened WithStrictTransfers. A failed transfer aborts the upload and leaves
// the slot partially written.
func (s *Session) UploadCustom(ctx context.Context, slot uint8, p *Profile) error {
	const op = "upload custom"

	if slot >= SlotCount {
		return fmt.Errorf("%s: %w: %d", op, pkg.ErrInvalidSlot, slot)
	}
	if p == nil {
		return fmt.Errorf("%s: %w: nil profile", op, pkg.ErrInvalidParameter)
	}

	target := s.proto.Slots.Resolve(slot)
	if err := s.sendHeader(ctx, op, "header", uploadHeader(target)); err != nil {
		return err
	}

	for i := 0; i < ChunkCount; i++ {
		step := fmt.Sprintf("chunk %d", i)
		if err := s.ready(ctx, op, step); err != nil {
			return err
		}
		n, err := s.dev.InterruptTransfer(ctx, profileEndpointOut, p.Chunk(i))
		if err != nil {
			return &pkg.TransferError{Op: op, Step: step, Err: err}
		}
		if n != ChunkSize {
			if err := s.short(op, step, ChunkSize, n); err != nil {
				return err
			}
		}
	}

	pkg.LogInfo(pkg.ComponentSession, "custom frame uploaded", "slot", slot, "target", target)
	return nil
}

// SetCustomSlot activates the frame stored in custom slot (0-4).
func (s *Session) SetCustomSlot(ctx context.Context, slot, brightness uint8) error {
	const op = "set custom slot"

	if slot >= SlotCount {
		return fmt.Errorf("%s: %w: %d", op, pkg.ErrInvalidSlot, slot)
	}

	target := s.proto.Slots.Resolve(slot)
	if err := s.sendHeader(ctx, op, "header", customSlotHeader(target, brightness)); err != nil {
		return err
	}

	pkg.LogInfo(pkg.ComponentSession, "custom slot applied", "slot", slot, "target", target, "brightness", brightness)
	return nil
}

// DownloadCustom reads the frame stored in custom slot (0-4) into out.
// Every chunk must arrive in full; out is only written on success.
func (s *Session) DownloadCustom(ctx context.Context, slot uint8, out *Profile) error {
	const op = "download custom"

	if !s.proto.ReadBack {
		return fmt.Errorf("%s: %w by protocol %s", op, pkg.ErrNotSupported, s.proto.Name)
	}
	if slot >= SlotCount {
		return fmt.Errorf("%s: %w: %d", op, pkg.ErrInvalidSlot, slot)
	}
	if out == nil {
		return fmt.Errorf("%s: %w: nil profile", op, pkg.ErrInvalidParameter)
	}

	target := s.proto.Slots.Resolve(slot)
	if err := s.sendHeader(ctx, op, "header", readHeader(target)); err != nil {
		return err
	}

	var frame Profile
	total := 0
	for i := 0; i < ChunkCount; i++ {
		step := fmt.Sprintf("chunk %d", i)
		if err := s.ready(ctx, op, step); err != nil {
			return err
		}
		n, err := s.dev.InterruptTransfer(ctx, profileEndpointIn, frame.Chunk(i))
		if err != nil {
			return &pkg.TransferError{Op: op, Step: step, Err: err}
		}
		if n != ChunkSize {
			return &pkg.ShortTransferError{Op: op, Step: step, Want: ChunkSize, Got: n}
		}
		total += n
	}
	if total != ProfileSize {
		return &pkg.ShortTransferError{Op: op, Step: "frame", Want: ProfileSize, Got: total}
	}

	*out = frame
	pkg.LogInfo(pkg.ComponentSession, "custom frame downloaded", "slot", slot, "target", target)
	return nil
}

// =============================================================================
// Transfer Helpers
// =============================================================================

// ready reports whether another transfer may be issued.
func (s *Session) ready(ctx context.Context, op, step string) error {
	if s.closed {
		return fmt.Errorf("%s: %s: %w", op, step, pkg.ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %s: %w", op, step, err)
	}
	return nil
}

// sendHeader issues one SET_REPORT control transfer carrying h.
func (s *Session) sendHeader(ctx context.Context, op, step string, h Header) error {
	if err := s.ready(ctx, op, step); err != nil {
		return err
	}

	b := h.Bytes()
	setup := hal.SetupPacket{
		RequestType: reportRequestType,
		Request:     reportRequest,
		Value:       reportValue,
		Index:       reportIndex,
		Length:      HeaderSize,
	}

	n, err := s.dev.ControlTransfer(ctx, &setup, b[:])
	if err != nil {
		return &pkg.TransferError{Op: op, Step: step, Err: err}
	}
	pkg.LogDebug(pkg.ComponentCodec, "header sent", "op", op, "step", step, "kind", h.Kind.String(), "bytes", h.String())

	if n != HeaderSize {
		return s.short(op, step, HeaderSize, n)
	}
	return nil
}

// short handles a transfer that moved fewer bytes than requested.
func (s *Session) short(op, step string, want, got int) error {
	err := &pkg.ShortTransferError{Op: op, Step: step, Want: want, Got: got}
	if s.strict {
		return err
	}
	pkg.LogWarn(pkg.ComponentSession, "short transfer ignored", "op", op, "step", step, "want", want, "got", got)
	return nil
}

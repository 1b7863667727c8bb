// Package kbd drives the RGB lighting of the Fusion keyboard found in the
// Gigabyte Aero 15X (USB 1044:7a39).
//
// Every command is an 8-byte [Header] sent as a HID SET_REPORT control
// transfer on interface 3. Custom frames ([Profile]) follow their header as
// eight 64-byte interrupt transfers on endpoint 6.
//
// # Sessions
//
// [Open] claims interfaces 0 and 3, detaching the kernel's keyboard driver
// where bound. [Session.Close] undoes both and must run on every exit path:
//
//	s, err := kbd.Open(ctx, backend)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	err = s.SetPreset(ctx, kbd.PresetWave, 5, 16, kbd.ColorRand)
//
// # Protocol Revisions
//
// Firmware revisions differ in how a preset change must be sequenced and in
// how custom slots are addressed. A [Protocol] bundles these choices and is
// selected with [WithProtocol]; [DefaultProtocol] works on every revision
// known.
package kbd

// Package sim provides an in-memory Fusion keyboard implementing the hal
// interfaces.
//
// The simulator tracks kernel driver binding and interface claims the way
// usbfs does (a bound driver blocks a claim, closing the handle drops its
// claims), decodes every header it receives, stores uploaded frames per
// slot and serves them back on read-back. Every transfer is recorded.
//
// It backs the package tests and the command line tool's dry-run mode:
//
//	kb := sim.New()
//	s, err := kbd.Open(ctx, kb)
//	...
//	for _, t := range kb.Transfers() {
//	    fmt.Printf("%s % x\n", t.Type, t.Data)
//	}
//
// Failures are injected through [Keyboard.Faults].
package sim

// Package pkg provides shared utilities for the fusionkbd packages.
//
// This package contains common functionality used by the keyboard core, the
// USB backends and the command line tool, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel and typed errors for device and transfer failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentSession, "interface claimed", "iface", 3)
//
// # Errors
//
// Failures are reported as sentinel values, optionally wrapped in a
// [TransferError] that names the failing step:
//
//	if errors.Is(err, pkg.ErrDeviceNotFound) {
//	    // advise running with elevated privileges
//	}
//
//	var te *pkg.TransferError
//	if errors.As(err, &te) {
//	    fmt.Println("failed at", te.Step)
//	}
package pkg

//go:build libusb

package main

import (
	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/host/hal/libusb"
	"github.com/ardnew/fusionkbd/internal/config"
)

func init() {
	backendFactories[config.BackendLibUSB] = func(a *app) hal.Backend {
		b := libusb.New()
		if a.opts.verbose {
			b.DebugLevel = 3
		}
		return b
	}
}

//go:build linux

package main

import (
	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/host/hal/linux"
	"github.com/ardnew/fusionkbd/internal/config"
)

func init() {
	backendFactories[config.BackendUSBFS] = func(*app) hal.Backend { return linux.New() }
}

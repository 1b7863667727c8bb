package main

import (
	"sort"

	"github.com/ardnew/fusionkbd/host/hal"
	"github.com/ardnew/fusionkbd/internal/config"
)

// backendFactory creates the hal backend for a name in the configuration.
type backendFactory func(a *app) hal.Backend

// backendFactories holds the backends compiled into this build. Platform
// files add to it from init.
var backendFactories = map[string]backendFactory{
	config.BackendSim: func(a *app) hal.Backend { return a.simKeyboard() },
}

func availableBackends() []string {
	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

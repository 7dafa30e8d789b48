// Package config holds the controller's application configuration.
// An App is built once at startup and is shared read-only by every cell.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

const (
	DefaultEndpointKey = "endpoint.controlant.com/managed"
	DefaultSessionName = "ctrl-vpces"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "auto"

	DefaultInterval   = 5 * time.Minute
	DefaultBackoffMin = 60 * time.Second
	DefaultBackoffMax = 300 * time.Second
)

// App is the controller configuration.
type App struct {
	AuthMode    core.AuthMode
	Regions     []string // nil means the ambient region
	EndpointKey string
	DryRun      bool
	Once        bool

	SessionName string
	Interval    time.Duration
	BackoffMin  time.Duration
	BackoffMax  time.Duration
}

// Default returns an App in local mode with the stock timings.
func Default() App {
	return App{
		AuthMode:    core.LocalMode(),
		EndpointKey: DefaultEndpointKey,
		SessionName: DefaultSessionName,
		Interval:    DefaultInterval,
		BackoffMin:  DefaultBackoffMin,
		BackoffMax:  DefaultBackoffMax,
	}
}

// WithRegions returns a copy of a with regions in the order given.
// Repeated regions are kept and planned once per occurrence. An empty list
// leaves Regions nil.
func (a App) WithRegions(regions []string) App {
	if len(regions) == 0 {
		a.Regions = nil
		return a
	}
	a.Regions = slices.Clone(regions)
	return a
}

// Validate checks the invariants the rest of the controller relies on.
func (a App) Validate() error {
	switch a.AuthMode.Kind {
	case core.AuthLocal:
	case core.AuthAssume:
		if len(a.AuthMode.Roles) == 0 {
			return errors.New("assume mode requires at least one role")
		}
		for _, r := range a.AuthMode.Roles {
			if r == "" {
				return errors.New("assume mode role must not be empty")
			}
		}
	case core.AuthDiscover:
		if a.AuthMode.SubRolePath == "" {
			return errors.New("discover mode requires a sub role")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", a.AuthMode.Kind)
	}

	if a.EndpointKey == "" {
		return errors.New("endpoint key must not be empty")
	}
	for _, r := range a.Regions {
		if r == "" {
			return errors.New("region must not be empty")
		}
	}
	if a.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", a.Interval)
	}
	if a.BackoffMin <= 0 || a.BackoffMin >= a.BackoffMax {
		return fmt.Errorf("backoff window [%s, %s) is empty", a.BackoffMin, a.BackoffMax)
	}
	return nil
}

package config

import (
	"slices"
	"testing"
	"time"

	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AuthMode.Kind != core.AuthLocal {
		t.Errorf("expected local mode, got %s", cfg.AuthMode)
	}
	if cfg.EndpointKey != "endpoint.controlant.com/managed" {
		t.Errorf("unexpected endpoint key %q", cfg.EndpointKey)
	}
	if cfg.Interval != 5*time.Minute {
		t.Errorf("expected 5m interval, got %s", cfg.Interval)
	}
	if cfg.BackoffMin != 60*time.Second || cfg.BackoffMax != 300*time.Second {
		t.Errorf("unexpected backoff window [%s, %s)", cfg.BackoffMin, cfg.BackoffMax)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestWithRegions(t *testing.T) {
	in := []string{"a", "b", "a"}
	cfg := Default().WithRegions(in)
	if !slices.Equal(cfg.Regions, []string{"a", "b", "a"}) {
		t.Errorf("expected regions as given, got %v", cfg.Regions)
	}
	in[0] = "z"
	if cfg.Regions[0] != "a" {
		t.Error("expected regions to be copied")
	}

	cfg = Default().WithRegions(nil)
	if cfg.Regions != nil {
		t.Errorf("expected nil regions, got %v", cfg.Regions)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*App)
		ok     bool
	}{
		{"local", func(a *App) {}, true},
		{"assume", func(a *App) { a.AuthMode = core.AssumeMode([]string{"arn:aws:iam::1:role/x"}) }, true},
		{"assume without roles", func(a *App) { a.AuthMode = core.AssumeMode(nil) }, false},
		{"assume empty role", func(a *App) { a.AuthMode = core.AssumeMode([]string{""}) }, false},
		{"discover", func(a *App) { a.AuthMode = core.DiscoverMode("", "/X") }, true},
		{"discover without sub role", func(a *App) { a.AuthMode = core.DiscoverMode("arn:aws:iam::1:role/r", "") }, false},
		{"unknown mode", func(a *App) { a.AuthMode = core.AuthMode{Kind: "bogus"} }, false},
		{"empty endpoint key", func(a *App) { a.EndpointKey = "" }, false},
		{"empty region", func(a *App) { a.Regions = []string{""} }, false},
		{"zero interval", func(a *App) { a.Interval = 0 }, false},
		{"inverted backoff", func(a *App) { a.BackoffMin, a.BackoffMax = time.Minute, time.Second }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid config: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

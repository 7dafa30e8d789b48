// Package controller drives reconciliation cycles: resolve regions,
// discover accounts, plan the work matrix, fan it out and wait.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/config"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
	"github.com/stratus-framework/ctrl-vpces/internal/discovery"
	"github.com/stratus-framework/ctrl-vpces/internal/executor"
	"github.com/stratus-framework/ctrl-vpces/internal/planner"
	"github.com/stratus-framework/ctrl-vpces/internal/reconcile"
)

// Sessions materializes sessions and clients. awsclient.Factory is the
// production implementation.
type Sessions interface {
	BaseRegion(ctx context.Context) (string, error)
	CellClients(ctx context.Context, spec core.SessionSpec) (reconcile.Clients, error)
	AccountLister(ctx context.Context, spec core.SessionSpec) (organizations.ListAccountsAPIClient, error)
}

// Controller runs the cycle loop.
type Controller struct {
	app      config.App
	sessions Sessions
	logger   zerolog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(n time.Duration) time.Duration
}

// New creates a controller. app must already be validated.
func New(app config.App, sessions Sessions, logger zerolog.Logger) *Controller {
	return &Controller{
		app:      app,
		sessions: sessions,
		logger:   logger,
		sleep:    sleepContext,
		jitter:   rand.N[time.Duration],
	}
}

// Run executes cycles until ctx is cancelled, or once when the app is
// configured for a single pass. A discovery failure is followed by a
// randomized backoff and a fresh cycle. Any other cycle error is fatal
// and returned.
func (c *Controller) Run(ctx context.Context) error {
	for {
		_, err := c.RunCycle(ctx)
		if ctx.Err() != nil {
			c.logger.Info().Msg("shutting down")
			return nil
		}

		var derr *discovery.Error
		switch {
		case errors.As(err, &derr):
			wait := c.backoff()
			c.logger.Warn().Err(err).Dur("retry_in", wait).Msg("skipping cycle")
			if c.sleep(ctx, wait) != nil {
				c.logger.Info().Msg("shutting down")
				return nil
			}
			continue
		case err != nil:
			return err
		}

		if c.app.Once {
			return nil
		}
		if c.sleep(ctx, c.app.Interval) != nil {
			c.logger.Info().Msg("shutting down")
			return nil
		}
	}
}

// RunCycle performs one planning and execution pass.
func (c *Controller) RunCycle(ctx context.Context) (executor.Summary, error) {
	logger := c.logger.With().Str("cycle", uuid.NewString()).Logger()
	mode := c.app.AuthMode

	baseRegion, err := c.sessions.BaseRegion(ctx)
	if err != nil {
		return executor.Summary{}, fmt.Errorf("resolving base region: %w", err)
	}
	regions := planner.Regions(c.app.Regions, baseRegion)

	var accounts []string
	if mode.Kind == core.AuthDiscover {
		accounts, err = c.discover(ctx, mode, baseRegion, logger)
		if err != nil {
			return executor.Summary{}, err
		}
	}

	cells := planner.Plan(mode, regions, accounts)
	logger.Info().
		Str("mode", mode.String()).
		Strs("regions", regions).
		Int("accounts", len(accounts)).
		Int("cells", len(cells)).
		Bool("dry_run", c.app.DryRun).
		Msg("cycle planned")

	rec := reconcile.New(logger, c.app)
	outcomes, err := executor.Run(ctx, cells, func(ctx context.Context, cell core.WorkCell) (core.CellResult, error) {
		clients, err := c.sessions.CellClients(ctx, cell.Session)
		if err != nil {
			logger.Error().Err(err).
				Str("region", cell.Region).
				Str("role", cell.Session.RoleARN).
				Msg("failed to build session")
			return core.CellResult{Status: core.CellSessionFailed}, nil
		}
		return rec.Run(ctx, clients, cell)
	})
	summary := executor.Summarize(outcomes)
	if err != nil {
		return summary, fmt.Errorf("reconciling cells: %w", err)
	}

	logger.Info().
		Int("cells", summary.Cells).
		Int("identity_skipped", summary.IdentitySkipped).
		Int("session_failed", summary.SessionFailed).
		Int("list_failed", summary.ListFailed).
		Int("services", summary.Services).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Int("intended", summary.Intended).
		Msg("cycle complete")
	return summary, nil
}

func (c *Controller) discover(ctx context.Context, mode core.AuthMode, baseRegion string, logger zerolog.Logger) ([]string, error) {
	root := planner.RootSession(mode, baseRegion)
	lister, err := c.sessions.AccountLister(ctx, root)
	if err != nil {
		return nil, &discovery.Error{Err: err}
	}
	return discovery.Accounts(ctx, lister, logger.With().Str("root_role", root.RoleARN).Logger())
}

// backoff draws a fresh duration from [BackoffMin, BackoffMax).
func (c *Controller) backoff() time.Duration {
	return c.app.BackoffMin + c.jitter(c.app.BackoffMax-c.app.BackoffMin)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

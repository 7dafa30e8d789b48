// Package cli wires the ctrl-vpces command line to the controller.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stratus-framework/ctrl-vpces/internal/awsclient"
	"github.com/stratus-framework/ctrl-vpces/internal/config"
	"github.com/stratus-framework/ctrl-vpces/internal/controller"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
	"github.com/stratus-framework/ctrl-vpces/internal/logging"
	"github.com/stratus-framework/ctrl-vpces/internal/principal"
)

// LogLevelEnv overrides the default of --log-level.
const LogLevelEnv = "CTRL_VPCES_LOG_LEVEL"

type options struct {
	assume      []string
	rootRole    string
	subRole     string
	regions     []string
	endpointKey string
	dryRun      bool
	once        bool
	logLevel    string
	logFormat   string
}

// NewRootCmd builds the ctrl-vpces command.
func NewRootCmd(version string) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "ctrl-vpces",
		Short: "Keep VPC endpoint service allow-lists in sync with AWS accounts",
		Long: `ctrl-vpces finds VPC endpoint services carrying a marker tag and adds the
root principals of the organization's accounts to their allowed principals.

Credentials come from the ambient AWS configuration (local mode), from one or
more roles given with --assume, or by listing the organization (optionally
through --root-role) and assuming --sub-role in every member account.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(opts.logLevel, opts.logFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			app, warnings, err := opts.app()
			if err != nil {
				return err
			}
			for _, w := range warnings {
				logger.Warn().Msg(w)
			}
			logConfig(logger, app)

			factory := awsclient.NewFactory(logger, app.SessionName)
			return controller.New(app, factory, logger).Run(cmd.Context())
		},
	}

	defaultLevel := config.DefaultLogLevel
	if v := os.Getenv(LogLevelEnv); v != "" {
		defaultLevel = v
	}

	f := cmd.Flags()
	f.StringArrayVarP(&opts.assume, "assume", "a", nil, "Role ARN to assume; repeat for several roles")
	f.StringVar(&opts.rootRole, "root-role", "", "Role ARN in the management account used to list the organization")
	f.StringVar(&opts.subRole, "sub-role", "", `Role path and name assumed in every member account, e.g. "/ctrl-vpces"`)
	f.StringArrayVarP(&opts.regions, "region", "r", nil, "Region to reconcile; repeat for several (default: ambient region)")
	f.StringVarP(&opts.endpointKey, "endpoint-key", "e", config.DefaultEndpointKey, "Tag key marking managed endpoint services")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Log intended changes without modifying permissions")
	f.BoolVar(&opts.once, "once", false, "Run a single cycle and exit")
	f.StringVar(&opts.logLevel, "log-level", defaultLevel, "Log level (trace, debug, info, warn, error); env "+LogLevelEnv)
	f.StringVar(&opts.logFormat, "log-format", config.DefaultLogFormat, "Log format (auto, console, json)")

	return cmd
}

// app resolves the flags into a validated configuration, plus warnings
// worth surfacing at startup.
func (o options) app() (config.App, []string, error) {
	mode, err := o.mode()
	if err != nil {
		return config.App{}, nil, err
	}

	app := config.Default().WithRegions(o.regions)
	app.AuthMode = mode
	app.EndpointKey = o.endpointKey
	app.DryRun = o.dryRun
	app.Once = o.once
	if err := app.Validate(); err != nil {
		return config.App{}, nil, err
	}

	var warnings []string
	switch mode.Kind {
	case core.AuthLocal, core.AuthAssume:
		warnings = append(warnings, fmt.Sprintf("%s mode discovers no accounts; allow-lists will not gain principals", mode.Kind))
	case core.AuthDiscover:
		if !strings.HasPrefix(mode.SubRolePath, "/") {
			warnings = append(warnings, fmt.Sprintf("sub role %q does not start with \"/\"; member role ARNs will be malformed", mode.SubRolePath))
		}
	}
	return app, warnings, nil
}

// mode picks the auth mode and enforces the rules between the mode flags.
func (o options) mode() (core.AuthMode, error) {
	switch {
	case len(o.assume) > 0:
		if o.rootRole != "" || o.subRole != "" {
			return core.AuthMode{}, errors.New("--assume cannot be combined with --root-role or --sub-role")
		}
		for _, role := range o.assume {
			if err := principal.ValidateRoleARN(role); err != nil {
				return core.AuthMode{}, fmt.Errorf("--assume: %w", err)
			}
		}
		return core.AssumeMode(o.assume), nil
	case o.rootRole != "" || o.subRole != "":
		if o.subRole == "" {
			return core.AuthMode{}, errors.New("--root-role requires --sub-role")
		}
		if o.rootRole != "" {
			if err := principal.ValidateRoleARN(o.rootRole); err != nil {
				return core.AuthMode{}, fmt.Errorf("--root-role: %w", err)
			}
		}
		return core.DiscoverMode(o.rootRole, o.subRole), nil
	default:
		return core.LocalMode(), nil
	}
}

func logConfig(logger zerolog.Logger, app config.App) {
	ev := logger.Debug().
		Str("mode", app.AuthMode.String()).
		Strs("regions", app.Regions).
		Str("endpoint_key", app.EndpointKey).
		Bool("dry_run", app.DryRun).
		Bool("once", app.Once).
		Dur("interval", app.Interval)
	switch app.AuthMode.Kind {
	case core.AuthAssume:
		ev = ev.Strs("roles", app.AuthMode.Roles)
	case core.AuthDiscover:
		ev = ev.Str("root_role", app.AuthMode.RootRole).Str("sub_role", app.AuthMode.SubRolePath)
	}
	ev.Msg("loaded configuration")
}

// Package awsclient builds AWS SDK v2 sessions for the controller: the
// ambient credential chain, or an assume-role chain layered on top of it.
package awsclient

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
	"github.com/stratus-framework/ctrl-vpces/internal/reconcile"
)

// ErrNoRegion is returned when the ambient configuration names no region.
var ErrNoRegion = errors.New("no region in ambient AWS configuration; set AWS_REGION or pass --region")

// Factory creates sessions and service clients. It holds no credentials
// itself: every call builds a fresh provider, so cells never share one.
type Factory struct {
	logger      zerolog.Logger
	sessionName string
	loadOptions []func(*config.LoadOptions) error
}

// NewFactory creates a session factory. Assumed-role sessions are named
// sessionName. opts are passed to every config.LoadDefaultConfig call.
func NewFactory(logger zerolog.Logger, sessionName string, opts ...func(*config.LoadOptions) error) *Factory {
	return &Factory{
		logger:      logger,
		sessionName: sessionName,
		loadOptions: opts,
	}
}

func (f *Factory) load(ctx context.Context, region string) (aws.Config, error) {
	opts := slices.Clone(f.loadOptions)
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	cfg.APIOptions = append(cfg.APIOptions, logCalls(f.logger))
	return cfg, nil
}

// BaseRegion resolves the region of the ambient configuration.
func (f *Factory) BaseRegion(ctx context.Context) (string, error) {
	cfg, err := f.load(ctx, "")
	if err != nil {
		return "", err
	}
	if cfg.Region == "" {
		return "", ErrNoRegion
	}
	return cfg.Region, nil
}

// Config builds the aws.Config for spec. Credentials are not validated
// here; an unusable role only surfaces on the first API call.
func (f *Factory) Config(ctx context.Context, spec core.SessionSpec) (aws.Config, error) {
	cfg, err := f.load(ctx, spec.Region)
	if err != nil {
		return aws.Config{}, err
	}
	if !spec.Assumes() {
		return cfg, nil
	}

	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), spec.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		o.RoleSessionName = f.sessionName
	})

	assumed := cfg.Copy()
	// The cache refreshes the assumed credentials ahead of expiry.
	assumed.Credentials = aws.NewCredentialsCache(provider)

	f.logger.Debug().
		Str("role", spec.RoleARN).
		Str("region", cfg.Region).
		Str("session_name", f.sessionName).
		Msg("built assume-role session")
	return assumed, nil
}

// CellClients returns the identity and endpoint service clients for a cell.
func (f *Factory) CellClients(ctx context.Context, spec core.SessionSpec) (reconcile.Clients, error) {
	cfg, err := f.Config(ctx, spec)
	if err != nil {
		return reconcile.Clients{}, err
	}
	return reconcile.Clients{
		Identity: sts.NewFromConfig(cfg),
		Services: ec2.NewFromConfig(cfg),
	}, nil
}

// AccountLister returns an organizations client for account discovery.
func (f *Factory) AccountLister(ctx context.Context, spec core.SessionSpec) (organizations.ListAccountsAPIClient, error) {
	cfg, err := f.Config(ctx, spec)
	if err != nil {
		return nil, err
	}
	return organizations.NewFromConfig(cfg), nil
}

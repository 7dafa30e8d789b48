// Package reconcile applies the consumer allow-list to the managed VPC
// endpoint services reachable from one work cell.
package reconcile

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/config"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

// IdentityAPI is the caller identity probe.
type IdentityAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// EndpointServiceAPI lists endpoint service configurations and edits their
// permissions.
type EndpointServiceAPI interface {
	ec2.DescribeVpcEndpointServiceConfigurationsAPIClient
	ModifyVpcEndpointServicePermissions(ctx context.Context, params *ec2.ModifyVpcEndpointServicePermissionsInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVpcEndpointServicePermissionsOutput, error)
}

// Clients are the per-cell API clients. They are bound to the cell's
// session and are never shared with other cells.
type Clients struct {
	Identity IdentityAPI
	Services EndpointServiceAPI
}

// Reconciler runs the per-cell algorithm.
type Reconciler struct {
	logger      zerolog.Logger
	endpointKey string
	dryRun      bool
}

// New creates a reconciler from the application config.
func New(logger zerolog.Logger, app config.App) *Reconciler {
	return &Reconciler{
		logger:      logger,
		endpointKey: app.EndpointKey,
		dryRun:      app.DryRun,
	}
}

// Run reconciles one cell. Operational failures are logged and reflected
// in the returned result; the error is reserved for malformed responses.
func (r *Reconciler) Run(ctx context.Context, clients Clients, cell core.WorkCell) (core.CellResult, error) {
	logger := r.logger.With().Str("region", cell.Region).Logger()
	if cell.Session.Assumes() {
		logger = logger.With().Str("role", cell.Session.RoleARN).Logger()
	}

	var result core.CellResult

	// A role missing from a member account shows up here; skip the cell quietly.
	ident, err := clients.Identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		logger.Debug().Err(err).Str("code", core.APIErrorCode(err)).Msg("ignore failed assume role")
		result.Status = core.CellIdentitySkipped
		return result, nil
	}
	if ident.Account == nil {
		return result, fmt.Errorf("GetCallerIdentity returned no account: %w", core.ErrMalformedResponse)
	}
	result.AccountID = aws.ToString(ident.Account)
	logger = logger.With().Str("account", result.AccountID).Logger()
	logger.Info().Int("accounts", len(cell.Accounts)).Msg("working on account")

	principals := slices.Clone(cell.Principals)
	if principals == nil {
		principals = []string{}
	}

	paginator := ec2.NewDescribeVpcEndpointServiceConfigurationsPaginator(clients.Services,
		&ec2.DescribeVpcEndpointServiceConfigurationsInput{
			Filters: []ec2types.Filter{
				{Name: aws.String("tag-key"), Values: []string{r.endpointKey}},
			},
		})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			logger.Error().Err(err).Str("code", core.APIErrorCode(err)).Msg("failed to list endpoint services")
			result.Status = core.CellListFailed
			return result, nil
		}

		for _, svc := range page.ServiceConfigurations {
			if svc.ServiceId == nil {
				return result, fmt.Errorf("endpoint service configuration without service id: %w", core.ErrMalformedResponse)
			}
			serviceID := aws.ToString(svc.ServiceId)
			result.Services++

			if r.dryRun {
				logger.Info().
					Str("service", serviceID).
					Strs("add_principals", principals).
					Msg("dry run: would update principals")
				result.Intended++
				continue
			}

			_, err := clients.Services.ModifyVpcEndpointServicePermissions(ctx, &ec2.ModifyVpcEndpointServicePermissionsInput{
				ServiceId:            aws.String(serviceID),
				AddAllowedPrincipals: principals,
			})
			if err != nil {
				logger.Error().Err(err).
					Str("service", serviceID).
					Str("code", core.APIErrorCode(err)).
					Msg("failed to update principals")
				result.Failed++
				continue
			}
			logger.Info().Str("service", serviceID).Int("principals", len(principals)).Msg("updated principals")
			result.Updated++
		}
	}

	result.Status = core.CellCompleted
	return result, nil
}

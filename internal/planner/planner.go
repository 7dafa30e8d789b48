// Package planner expands an auth mode, a region list and the discovered
// accounts into the cycle's work cells. It performs no I/O.
package planner

import (
	"slices"

	"github.com/stratus-framework/ctrl-vpces/internal/core"
	"github.com/stratus-framework/ctrl-vpces/internal/principal"
)

// Regions returns the configured regions, or the base region alone when
// none were configured.
func Regions(configured []string, baseRegion string) []string {
	if len(configured) == 0 {
		return []string{baseRegion}
	}
	return slices.Clone(configured)
}

// Plan materializes the execution matrix. accounts is only read in
// discover mode. Cells are ordered outer principal, inner region.
func Plan(mode core.AuthMode, regions, accounts []string) []core.WorkCell {
	switch mode.Kind {
	case core.AuthLocal:
		cells := make([]core.WorkCell, 0, len(regions))
		for _, region := range regions {
			cells = append(cells, core.WorkCell{
				Session:    core.SessionSpec{Region: region},
				Region:     region,
				Principals: []string{},
			})
		}
		return cells

	case core.AuthAssume:
		// No accounts are known here, so the principal set stays empty.
		cells := make([]core.WorkCell, 0, len(mode.Roles)*len(regions))
		for _, role := range mode.Roles {
			for _, region := range regions {
				cells = append(cells, core.WorkCell{
					Session:    core.SessionSpec{RoleARN: role, Region: region},
					Region:     region,
					Principals: principal.Roots(nil),
				})
			}
		}
		return cells

	case core.AuthDiscover:
		principals := principal.Roots(accounts)
		cells := make([]core.WorkCell, 0, len(accounts)*len(regions))
		for _, acc := range accounts {
			role := principal.RoleARN(acc, mode.SubRolePath)
			for _, region := range regions {
				cells = append(cells, core.WorkCell{
					Session:    core.SessionSpec{RoleARN: role, Region: region},
					Region:     region,
					Principals: slices.Clone(principals),
					Accounts:   slices.Clone(accounts),
				})
			}
		}
		return cells
	}
	return nil
}

// RootSession describes the session used for account discovery.
func RootSession(mode core.AuthMode, baseRegion string) core.SessionSpec {
	return core.SessionSpec{RoleARN: mode.RootRole, Region: baseRegion}
}

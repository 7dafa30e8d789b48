// Package core defines the foundational types shared by the controller:
// the authentication mode, the per-cell session descriptor, the work cell
// itself and the outcome each cell reports back to the cycle loop.
package core

import "slices"

// AuthKind enumerates the mutually exclusive ways the controller obtains
// credentials for its work cells.
type AuthKind string

const (
	AuthLocal    AuthKind = "local"
	AuthAssume   AuthKind = "assume"
	AuthDiscover AuthKind = "discover"
)

// AuthMode is a tagged variant. Only the fields belonging to Kind are set.
type AuthMode struct {
	Kind AuthKind

	// Roles is the ordered list of role ARNs assumed directly (AuthAssume).
	Roles []string

	// RootRole is the optional role used to list organization accounts
	// (AuthDiscover). Empty means ambient credentials.
	RootRole string

	// SubRolePath is the role path and name assumed in every discovered
	// account (AuthDiscover), e.g. "/ops/VpcesController".
	SubRolePath string
}

// LocalMode uses the ambient credential chain.
func LocalMode() AuthMode {
	return AuthMode{Kind: AuthLocal}
}

// AssumeMode assumes each role directly from ambient credentials.
func AssumeMode(roles []string) AuthMode {
	return AuthMode{Kind: AuthAssume, Roles: slices.Clone(roles)}
}

// DiscoverMode lists organization accounts (through rootRole when set) and
// assumes subRolePath in each of them.
func DiscoverMode(rootRole, subRolePath string) AuthMode {
	return AuthMode{Kind: AuthDiscover, RootRole: rootRole, SubRolePath: subRolePath}
}

func (m AuthMode) String() string {
	return string(m.Kind)
}

// SessionSpec describes how to materialize a session. An empty RoleARN
// means the ambient credential chain.
type SessionSpec struct {
	RoleARN string
	Region  string
}

// Assumes reports whether the session is built through assume-role.
func (s SessionSpec) Assumes() bool {
	return s.RoleARN != ""
}

// WorkCell is one (session, region) unit of reconciliation. Cells are
// created by the planner and consumed exactly once by the executor.
type WorkCell struct {
	Session    SessionSpec
	Region     string
	Principals []string
	// Accounts is carried for logging only.
	Accounts []string
}

// CellStatus is the terminal state of a work cell.
type CellStatus string

const (
	CellCompleted       CellStatus = "completed"
	CellIdentitySkipped CellStatus = "identity_skipped"
	CellSessionFailed   CellStatus = "session_failed"
	CellListFailed      CellStatus = "list_failed"
)

// CellResult summarizes what a reconciler did for one cell.
type CellResult struct {
	Status    CellStatus
	AccountID string
	Services  int
	Updated   int
	Failed    int
	Intended  int // dry-run intents
}

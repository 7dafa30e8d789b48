// Package principal derives the IAM ARNs the controller works with: the role
// assumed in each member account and the account root principals written to
// endpoint service allow-lists.
package principal

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

// RoleARN builds the role ARN for an account from a role path and name.
// The path is concatenated as given and must start with "/".
func RoleARN(accountID, subRolePath string) string {
	return "arn:aws:iam::" + accountID + ":role" + subRolePath
}

// Root returns the root principal of an account.
func Root(accountID string) string {
	return "arn:aws:iam::" + accountID + ":root"
}

// Roots maps accounts to their root principals, dropping duplicates while
// keeping first-seen order. The result is never nil.
func Roots(accounts []string) []string {
	seen := make(map[string]struct{}, len(accounts))
	out := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		if _, ok := seen[acc]; ok {
			continue
		}
		seen[acc] = struct{}{}
		out = append(out, Root(acc))
	}
	return out
}

// ValidateRoleARN checks that value is an IAM role ARN.
func ValidateRoleARN(value string) error {
	parsed, err := arn.Parse(value)
	if err != nil {
		return &FormatError{Value: value, Reason: err.Error()}
	}
	if parsed.Service != "iam" {
		return &FormatError{Value: value, Reason: fmt.Sprintf("service is %q, want iam", parsed.Service)}
	}
	if !strings.HasPrefix(parsed.Resource, "role/") {
		return &FormatError{Value: value, Reason: "resource is not a role"}
	}
	return nil
}

// FormatError reports a value that is not a usable role ARN.
type FormatError struct {
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid role ARN %q: %s", e.Value, e.Reason)
}

// IsFormatError checks if an error is a FormatError.
func IsFormatError(err error) bool {
	_, ok := err.(*FormatError)
	return ok
}

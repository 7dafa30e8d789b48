// Package discovery enumerates the member accounts of an AWS organization.
package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

// Error wraps a failed organization listing. The cycle loop backs off and
// retries on it.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("account discovery failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Accounts pages through ListAccounts and returns every account id in
// listing order with duplicates removed. A page error yields *Error; an
// account without an id yields core.ErrMalformedResponse.
func Accounts(ctx context.Context, client organizations.ListAccountsAPIClient, logger zerolog.Logger) ([]string, error) {
	var accounts []string
	seen := make(map[string]struct{})

	paginator := organizations.NewListAccountsPaginator(client, &organizations.ListAccountsInput{})
	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &Error{Err: fmt.Errorf("ListAccounts page %d: %w", pages+1, err)}
		}
		pages++

		for _, acc := range page.Accounts {
			if acc.Id == nil {
				return nil, fmt.Errorf("organization account without id: %w", core.ErrMalformedResponse)
			}
			id := aws.ToString(acc.Id)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			accounts = append(accounts, id)
		}
	}

	logger.Debug().Int("pages", pages).Int("accounts", len(accounts)).Msg("discovered organization accounts")
	return accounts, nil
}

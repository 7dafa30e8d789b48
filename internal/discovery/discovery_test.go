package discovery

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/organizations"
	orgtypes "github.com/aws/aws-sdk-go-v2/service/organizations/types"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

type fakeOrg struct {
	pages [][]*string
	errAt int // 1-based page index that fails; 0 disables
	calls int
}

func (f *fakeOrg) ListAccounts(ctx context.Context, params *organizations.ListAccountsInput, optFns ...func(*organizations.Options)) (*organizations.ListAccountsOutput, error) {
	f.calls++
	idx := 0
	if params.NextToken != nil {
		idx, _ = strconv.Atoi(*params.NextToken)
	}
	if f.errAt == idx+1 {
		return nil, errors.New("AWSOrganizationsNotInUseException")
	}

	out := &organizations.ListAccountsOutput{}
	if idx < len(f.pages) {
		for _, id := range f.pages[idx] {
			out.Accounts = append(out.Accounts, orgtypes.Account{Id: id})
		}
	}
	if idx+1 < len(f.pages) {
		out.NextToken = aws.String(strconv.Itoa(idx + 1))
	}
	return out, nil
}

func strs(values ...string) []*string {
	out := make([]*string, len(values))
	for i, v := range values {
		out[i] = aws.String(v)
	}
	return out
}

func TestAccountsAcrossPages(t *testing.T) {
	org := &fakeOrg{pages: [][]*string{
		strs("111", "222"),
		strs("333"),
	}}

	got, err := Accounts(context.Background(), org, zerolog.Nop())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if !slices.Equal(got, []string{"111", "222", "333"}) {
		t.Errorf("expected ordered accounts, got %v", got)
	}
	if org.calls != 2 {
		t.Errorf("expected 2 page fetches, got %d", org.calls)
	}
}

func TestAccountsDeduplicates(t *testing.T) {
	org := &fakeOrg{pages: [][]*string{
		strs("111", "222"),
		strs("111", "333"),
	}}

	got, err := Accounts(context.Background(), org, zerolog.Nop())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if !slices.Equal(got, []string{"111", "222", "333"}) {
		t.Errorf("expected deduplicated accounts, got %v", got)
	}
}

func TestAccountsPageError(t *testing.T) {
	org := &fakeOrg{
		pages: [][]*string{strs("111"), strs("222")},
		errAt: 2,
	}

	got, err := Accounts(context.Background(), org, zerolog.Nop())
	if got != nil {
		t.Errorf("expected no partial result, got %v", got)
	}
	var derr *Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if errors.Is(err, core.ErrMalformedResponse) {
		t.Error("page error must not be reported as malformed response")
	}
}

func TestAccountsMissingID(t *testing.T) {
	org := &fakeOrg{pages: [][]*string{{aws.String("111"), nil}}}

	_, err := Accounts(context.Background(), org, zerolog.Nop())
	if !errors.Is(err, core.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
	var derr *Error
	if errors.As(err, &derr) {
		t.Error("missing id must not be reported as a discovery failure")
	}
}

func TestAccountsEmptyOrganization(t *testing.T) {
	got, err := Accounts(context.Background(), &fakeOrg{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no accounts, got %v", got)
	}
}

package core

import (
	"errors"

	"github.com/aws/smithy-go"
)

// ErrMalformedResponse marks a cloud response missing a field the
// controller cannot operate without. It is never retried.
var ErrMalformedResponse = errors.New("malformed cloud response")

// APIErrorCode returns the service error code carried by err, or "" when
// err did not come from an AWS API response.
func APIErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

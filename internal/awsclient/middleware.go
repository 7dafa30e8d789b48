package awsclient

import (
	"context"

	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
	"github.com/stratus-framework/ctrl-vpces/internal/core"
)

// logCalls records every API call at debug level.
func logCalls(logger zerolog.Logger) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Initialize.Add(callLogger{logger: logger}, middleware.After)
	}
}

type callLogger struct {
	logger zerolog.Logger
}

func (callLogger) ID() string { return "CtrlVpcesCallLogger" }

func (m callLogger) HandleInitialize(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
	out, md, err := next.HandleInitialize(ctx, in)

	ev := m.logger.Debug().
		Str("service", awsmiddleware.GetServiceID(ctx)).
		Str("operation", awsmiddleware.GetOperationName(ctx))
	if err != nil {
		ev = ev.Err(err).Str("code", core.APIErrorCode(err))
	}
	ev.Msg("aws api call")

	return out, md, err
}

package server

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/kattabharath12/tax-1040/internal/common"
)

var grpcCodes = map[string]codes.Code{
	common.CodeAuthorization:     codes.Unauthenticated,
	common.CodeNotFound:          codes.NotFound,
	common.CodeConfiguration:     codes.Unavailable,
	common.CodeAlreadyProcessing: codes.FailedPrecondition,
	common.CodeInvalidArgument:   codes.InvalidArgument,
}

// toStatus maps an application error onto a gRPC status. The message carries
// the stable code and the human-readable detail only.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "internal error")
	}
	c, ok := grpcCodes[appErr.Code]
	if !ok {
		c = codes.Internal
	}
	return status.Errorf(c, "%s: %s", appErr.Code, appErr.Message)
}

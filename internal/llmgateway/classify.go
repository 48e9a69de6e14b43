package llmgateway

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shacharon/pizzasearch/internal/searcherr"
)

// Classify maps a transport-level error to the Kind the retry policy and
// callers reason about: a deadline becomes TIMEOUT, cancellation becomes
// ABORTED, Unavailable/ResourceExhausted/Aborted and any unrecognised
// error become TRANSIENT, and InvalidArgument/FailedPrecondition/
// PermissionDenied/Unauthenticated become PERMANENT. An error that is
// already a *searcherr.Error is returned as is.
func Classify(err error) *searcherr.Error {
	if err == nil {
		return nil
	}

	var se *searcherr.Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return searcherr.Wrap(searcherr.KindTimeout, "llmgateway.deadline_exceeded", err)
	}
	if errors.Is(err, context.Canceled) {
		return searcherr.Wrap(searcherr.KindAborted, "llmgateway.canceled", err)
	}

	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.DeadlineExceeded:
			return searcherr.Wrap(searcherr.KindTimeout, "llmgateway.deadline_exceeded", err)
		case codes.Canceled:
			return searcherr.Wrap(searcherr.KindAborted, "llmgateway.canceled", err)
		case codes.Unavailable, codes.ResourceExhausted, codes.Aborted:
			return searcherr.Wrap(searcherr.KindTransient, "llmgateway.unavailable", err)
		case codes.InvalidArgument, codes.FailedPrecondition, codes.PermissionDenied, codes.Unauthenticated:
			return searcherr.Wrap(searcherr.KindPermanent, "llmgateway.rejected", err)
		default:
			return searcherr.Wrap(searcherr.KindTransient, "llmgateway.unknown", err)
		}
	}

	return searcherr.Wrap(searcherr.KindTransient, "llmgateway.unknown", err)
}

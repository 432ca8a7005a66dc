package soosclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
)

const (
	requestIDHeader = "x-soos-request-id"
	maxErrorBody    = 4 << 10
)

func errorWithRequestID(message string, r *http.Response) error {
	requestID := r.Header.Get(requestIDHeader)
	if detail := apiErrorMessage(r); detail != "" {
		message = fmt.Sprintf("%s: %s", message, detail)
	}

	if requestID == "" {
		return fmt.Errorf("%s (%s)", message, r.Status)
	}

	return fmt.Errorf("%s (%s - requestId: %s)", message, r.Status, requestID)
}

func apiErrorMessage(r *http.Response) string {
	if r.Body == nil {
		return ""
	}
	var body apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(r.Body, maxErrorBody)).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}

// classifyResponse turns a non-2xx response into a scan error. Throttling and
// server errors may be retried by the poller; everything else is final.
func classifyResponse(op string, r *http.Response) error {
	switch {
	case r.StatusCode == http.StatusTooManyRequests:
		return scanerrors.New(scanerrors.RemoteTransient, op, errorWithRequestID("request was throttled", r))
	case r.StatusCode > 499:
		return scanerrors.New(scanerrors.RemoteTransient, op, errorWithRequestID("request failed due to a server error", r))
	case r.StatusCode == http.StatusNotFound:
		return scanerrors.New(scanerrors.RemoteFailure, op, errorWithRequestID("scan not found", r))
	case r.StatusCode > 399:
		return scanerrors.New(scanerrors.RemoteFailure, op, errorWithRequestID("request was rejected", r))
	default:
		return scanerrors.New(scanerrors.RemoteFailure, op, errorWithRequestID("unexpected response", r))
	}
}

// classifyTransportError separates a cancelled build from a network failure.
// The request URL is dropped: API paths carry the client id.
func classifyTransportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return scanerrors.New(scanerrors.Aborted, op, ctxErr)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = fmt.Errorf("%s request failed: %w", urlErr.Op, urlErr.Err)
	}
	if errors.Is(err, context.Canceled) {
		return scanerrors.New(scanerrors.Aborted, op, err)
	}
	return scanerrors.New(scanerrors.RemoteTransient, op, err)
}

package soossca

import (
	"errors"
	"fmt"

	clierrors "github.com/snyk/error-catalog-golang-public/cli"
	"github.com/snyk/error-catalog-golang-public/snyk_errors"

	"github.com/soos-io/cli-extension-sca/internal/orchestrator"
)

var errUnknownFailure = errors.New("SOOS SCA failed")

// newBuildFailureError wraps the terminal error of a failed build in a
// catalog error so the host can render it.
func newBuildFailureError(outcome orchestrator.BuildOutcome) error {
	cause := outcome.Err
	if cause == nil {
		cause = errUnknownFailure
	}

	var snykErr snyk_errors.Error
	if errors.As(cause, &snykErr) {
		return cause
	}

	detail := cause.Error()
	if outcome.ReportURL != "" {
		detail = fmt.Sprintf("%s. See %s", detail, outcome.ReportURL)
	}

	return clierrors.NewGeneralSCAFailureError(detail, snyk_errors.WithCause(cause))
}

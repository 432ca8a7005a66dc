package soossca

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/snyk/go-application-framework/pkg/workflow"

	"github.com/soos-io/cli-extension-sca/internal/orchestrator"
	"github.com/soos-io/cli-extension-sca/internal/poller"
	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/soosclient"
	"github.com/soos-io/cli-extension-sca/internal/statusstore"
	"github.com/soos-io/cli-extension-sca/pkg/logger"
)

const (
	contentTypeJSON = "application/json"

	MetaKeyReportURL   = "report-url"
	MetaKeyDisplayName = "display-name"
	MetaKeyStatus      = "status"
)

// dependencies are the collaborators a build step is wired with.
type dependencies struct {
	env        scancontext.Environment
	newStore   func(home string) statusstore.Store
	pollerOpts []poller.Option
}

func defaultDependencies() dependencies {
	return dependencies{
		env: os.LookupEnv,
		newStore: func(home string) statusstore.Store {
			return statusstore.NewFileStore(home)
		},
	}
}

func callback(ictx workflow.InvocationContext, data []workflow.Data) ([]workflow.Data, error) {
	return callbackWithDI(ictx, data, defaultDependencies())
}

func callbackWithDI(ictx workflow.InvocationContext, _ []workflow.Data, deps dependencies) ([]workflow.Data, error) {
	config := ictx.GetConfiguration()
	zl := ictx.GetEnhancedLogger()
	ctx := ictx.Context()
	log := logger.NewFromZerolog(zl)

	zl.Print("SOOS SCA workflow start")

	params := paramsFromConfig(config)
	sc, err := scancontext.Build(params, deps.env)
	if err != nil {
		// a valid on-failure value still applies, anything else fails the build
		policy, _ := scancontext.ParseOnFailure(params.OnFailure)
		outcome := orchestrator.FailedOutcome(policy, err)
		log.Error(ctx, "Invalid SOOS SCA configuration", logger.Err(err))
		return toWorkflowData(outcome, zl)
	}

	client := soosclient.NewSoosClient(ictx.GetNetworkAccess().GetHttpClient(), sc.APIBaseURI, sc.Credentials)
	log.Debug(ctx, "SOOS API client ready",
		logger.Attr("apiBaseUri", sc.APIBaseURI),
		logger.Attr("correlationId", client.CorrelationID()))

	orch := orchestrator.New(client, deps.newStore(sc.HomeDir),
		orchestrator.WithLogger(log),
		orchestrator.WithPollerOptions(deps.pollerOpts...),
		orchestrator.WithObserver(func(from, to orchestrator.State) {
			zl.Debug().Str("from", from.String()).Str("to", to.String()).Msg("Scan state changed")
		}))

	return toWorkflowData(orch.Run(ctx, sc), zl)
}

// toWorkflowData returns the outcome as workflow data, or the error the host
// renders when the build must fail.
func toWorkflowData(outcome orchestrator.BuildOutcome, zl *zerolog.Logger) ([]workflow.Data, error) {
	if outcome.Status == orchestrator.Failure {
		return nil, newBuildFailureError(outcome)
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal build outcome: %w", err)
	}

	data := workflow.NewData(DataTypeID, contentTypeJSON, payload)
	data.SetMetaData(MetaKeyStatus, outcome.Status.String())
	if outcome.ReportURL != "" {
		data.SetMetaData(MetaKeyReportURL, outcome.ReportURL)
	}
	if outcome.DisplayName != "" {
		data.SetMetaData(MetaKeyDisplayName, outcome.DisplayName)
	}

	zl.Printf("SOOS SCA workflow done (status %s)", outcome.Status)
	return []workflow.Data{data}, nil
}

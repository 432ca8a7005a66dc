package soossca

import (
	"fmt"

	"github.com/snyk/go-application-framework/pkg/workflow"
)

const (
	workflowIDStr = "soos-sca"
)

var (
	// WorkflowID identifies the SOOS SCA build step in the host engine.
	WorkflowID workflow.Identifier = workflow.NewWorkflowIdentifier(workflowIDStr)

	// DataTypeID is the unique identifier for the build outcome returned from
	// this workflow.
	DataTypeID workflow.Identifier = workflow.NewTypeIdentifier(WorkflowID, workflowIDStr)
)

// Init registers the SOOS SCA build step with engine.
func Init(engine workflow.Engine) error {
	flags := getFlagSet()

	_, err := engine.Register(
		WorkflowID,
		workflow.ConfigurationOptionsFromFlagset(flags),
		callback)
	if err != nil {
		return fmt.Errorf("failed to register workflow: %w", err)
	}

	return nil
}

package soossca

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/snyk/error-catalog-golang-public/snyk_errors"
	"github.com/snyk/go-application-framework/pkg/configuration"
	frameworkmocks "github.com/snyk/go-application-framework/pkg/mocks"
	"github.com/snyk/go-application-framework/pkg/networking"
	"github.com/snyk/go-application-framework/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soos-io/cli-extension-sca/internal/mocks"
	"github.com/soos-io/cli-extension-sca/internal/poller"
	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/statusstore"
)

var nopLogger = zerolog.Nop()

type testContext struct {
	config            configuration.Configuration
	invocationContext *frameworkmocks.MockInvocationContext
	service           *mocks.MockSoosService
	home              string
	clock             *mocks.FakeClock
}

func setupTestContext(t *testing.T, statuses ...string) *testContext {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	service := mocks.NewMockSoosService(func(r *http.Request) {
		assert.Equal(t, "secret-key", r.Header.Get("x-soos-apikey"))
	}, statuses...)
	t.Cleanup(service.Close)

	config := configuration.New()
	config.Set(FlagProjectName, "my-project")
	config.Set(FlagAPIBaseURI, service.APIBaseURI())

	invocationContext := frameworkmocks.NewMockInvocationContext(ctrl)
	invocationContext.EXPECT().GetConfiguration().Return(config).AnyTimes()
	invocationContext.EXPECT().GetEnhancedLogger().Return(&nopLogger).AnyTimes()
	invocationContext.EXPECT().GetNetworkAccess().Return(networking.NewNetworkAccess(config)).AnyTimes()
	invocationContext.EXPECT().Context().Return(context.Background()).AnyTimes()

	return &testContext{
		config:            config,
		invocationContext: invocationContext,
		service:           service,
		home:              t.TempDir(),
		clock:             mocks.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (tc *testContext) run(buildNumber string) ([]workflow.Data, error) {
	deps := defaultDependencies()
	deps.env = scancontext.MapEnvironment(map[string]string{
		"SOOS_CLIENT_ID": "client-123",
		"SOOS_API_KEY":   "secret-key",
		"JENKINS_HOME":   tc.home,
		"JOB_BASE_NAME":  "my-job",
		"BUILD_NUMBER":   buildNumber,
		"GIT_BRANCH":     "origin/main",
	})
	deps.pollerOpts = []poller.Option{poller.WithClock(tc.clock)}
	return callbackWithDI(tc.invocationContext, []workflow.Data{}, deps)
}

func decodeOutcome(t *testing.T, data workflow.Data) map[string]any {
	t.Helper()
	payload, ok := data.GetPayload().([]byte)
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	return decoded
}

func Test_callback_RunAndWait(t *testing.T) {
	tc := setupTestContext(t, "Queued", "Running", "Finished")

	result, err := tc.run("42")
	require.NoError(t, err)
	require.Len(t, result, 1)

	assert.Equal(t, contentTypeJSON, result[0].GetContentType())
	outcome := decodeOutcome(t, result[0])
	assert.Equal(t, "SUCCESS", outcome["status"])
	assert.Equal(t, mocks.MockReportURL, outcome["reportUrl"])
	assert.NotContains(t, string(result[0].GetPayload().([]byte)), "secret-key")

	reportURL, err := result[0].GetMetaData(MetaKeyReportURL)
	require.NoError(t, err)
	assert.Equal(t, mocks.MockReportURL, reportURL)

	displayName, err := result[0].GetMetaData(MetaKeyDisplayName)
	require.NoError(t, err)
	assert.Equal(t, "#42 - Run and wait mode.", displayName)

	assert.Equal(t, 1, tc.service.StartCalls)
	assert.Equal(t, 3, tc.service.StatusCalls)
	assert.Equal(t, 20*time.Second, tc.clock.Elapsed())

	_, statErr := os.Stat(statusstore.NewFileStore(tc.home).Path(scancontext.BuildKey{Job: "my-job", Number: 42}))
	assert.True(t, os.IsNotExist(statErr))
}

func Test_callback_AsyncInitThenAsyncResult(t *testing.T) {
	tc := setupTestContext(t, "Finished")
	store := statusstore.NewFileStore(tc.home)

	tc.config.Set(FlagMode, scancontext.ModeAsyncInit)
	result, err := tc.run("42")
	require.NoError(t, err)
	require.Len(t, result, 1)

	displayName, err := result[0].GetMetaData(MetaKeyDisplayName)
	require.NoError(t, err)
	assert.Equal(t, "#42 - Async init mode.", displayName)
	assert.Equal(t, 1, tc.service.StartCalls)
	assert.Equal(t, 0, tc.service.StatusCalls)

	record, err := os.ReadFile(store.Path(scancontext.BuildKey{Job: "my-job", Number: 42}))
	require.NoError(t, err)
	assert.Contains(t, string(record), tc.service.StatusURL())
	assert.NotContains(t, string(record), "secret-key")

	tc.config.Set(FlagMode, scancontext.ModeAsyncResult)
	result, err = tc.run("43")
	require.NoError(t, err)
	require.Len(t, result, 1)

	outcome := decodeOutcome(t, result[0])
	assert.Equal(t, "SUCCESS", outcome["status"])
	assert.Equal(t, "#43 - Async result mode.", outcome["displayName"])
	assert.Equal(t, 1, tc.service.StartCalls)
	assert.Equal(t, 1, tc.service.StatusCalls)
}

func Test_callback_AsyncResultWithoutRecord(t *testing.T) {
	tc := setupTestContext(t, "Finished")
	tc.config.Set(FlagMode, scancontext.ModeAsyncResult)

	result, err := tc.run("43")

	require.Error(t, err)
	assert.Nil(t, result)
	var snykErr snyk_errors.Error
	require.ErrorAs(t, err, &snykErr)
	assert.Contains(t, snykErr.Detail, "status record not found")
	assert.Equal(t, 0, tc.service.StartCalls)
	assert.Equal(t, 0, tc.service.StatusCalls)
}

func Test_callback_ConfigurationError(t *testing.T) {
	tests := []struct {
		name      string
		onFailure string
		wantErr   bool
	}{
		{name: "fail the build", onFailure: scancontext.OnFailureFailBuild, wantErr: true},
		{name: "continue on failure", onFailure: scancontext.OnFailureContinue, wantErr: false},
		{name: "invalid policy fails the build", onFailure: "ignore", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := setupTestContext(t, "Finished")
			tc.config.Set(FlagProjectName, "")
			tc.config.Set(FlagOnFailure, tt.onFailure)

			result, err := tc.run("42")

			if tt.wantErr {
				require.Error(t, err)
				var snykErr snyk_errors.Error
				require.ErrorAs(t, err, &snykErr)
				assert.Contains(t, snykErr.Detail, "project-name should not be empty")
			} else {
				require.NoError(t, err)
				require.Len(t, result, 1)
				status, metaErr := result[0].GetMetaData(MetaKeyStatus)
				require.NoError(t, metaErr)
				assert.Equal(t, "UNSTABLE", status)
			}
			assert.Equal(t, 0, tc.service.StartCalls)
		})
	}
}

func Test_callback_RemoteFailure(t *testing.T) {
	t.Run("fail the build", func(t *testing.T) {
		tc := setupTestContext(t, "FailedWithIssues")

		_, err := tc.run("42")

		require.Error(t, err)
		var snykErr snyk_errors.Error
		require.ErrorAs(t, err, &snykErr)
		assert.Contains(t, snykErr.Detail, "FailedWithIssues")
		assert.Contains(t, snykErr.Detail, mocks.MockReportURL)
	})

	t.Run("continue on failure", func(t *testing.T) {
		tc := setupTestContext(t, "FailedWithIssues")
		tc.config.Set(FlagOnFailure, scancontext.OnFailureContinue)

		result, err := tc.run("42")

		require.NoError(t, err)
		require.Len(t, result, 1)
		outcome := decodeOutcome(t, result[0])
		assert.Equal(t, "UNSTABLE", outcome["status"])
		assert.Equal(t, mocks.MockReportURL, outcome["reportUrl"])
		assert.Contains(t, outcome["error"], "FailedWithIssues")
	})
}

func Test_callback_PollTimeout(t *testing.T) {
	tc := setupTestContext(t, "Running")
	tc.config.Set(FlagResultMaxWait, "30")
	tc.config.Set(FlagResultPollingInterval, "10")

	_, err := tc.run("42")

	require.Error(t, err)
	var snykErr snyk_errors.Error
	require.ErrorAs(t, err, &snykErr)
	assert.Contains(t, snykErr.Detail, "poll timeout")
	assert.Equal(t, 3, tc.service.StatusCalls)
}

// Package soosclient talks to the SOOS API: it starts SCA analyses and fetches
// their results.
package soosclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/soos-io/cli-extension-sca/internal/constants"
	"github.com/soos-io/cli-extension-sca/internal/scancontext"
	"github.com/soos-io/cli-extension-sca/internal/scanerrors"
)

const (
	contentTypeHeader   = "Content-Type"
	mimeTypeJSON        = "application/json"
	apiKeyHeader        = "x-soos-apikey"
	correlationIDHeader = "x-soos-correlation-id"
	userAgentHeader     = "User-Agent"
	userAgent           = "soos-sca-cli-extension"

	opStartAnalysis = "start analysis"
	opFetchResult   = "fetch result"
)

// Client is the remote side of a scan. Errors are scanerrors: RemoteTransient
// may be retried, RemoteFailure and Aborted may not.
type Client interface {
	StartAnalysis(ctx context.Context, sc scancontext.ScanContext) (StartResponse, error)
	FetchResult(ctx context.Context, handle ScanHandle) (*AnalysisResult, error)
}

type (
	SoosClient struct {
		client        *http.Client
		apiBaseURL    string
		credentials   scancontext.Credentials
		correlationID string
	}
)

var _ Client = (*SoosClient)(nil)

func NewSoosClient(c *http.Client, apiBaseURL string, credentials scancontext.Credentials) *SoosClient {
	return &SoosClient{
		client:        withoutRedirects(c),
		apiBaseURL:    apiBaseURL,
		credentials:   credentials,
		correlationID: uuid.NewString(),
	}
}

// CorrelationID is sent with every request so support can trace one invocation.
func (t *SoosClient) CorrelationID() string {
	return t.correlationID
}

// withoutRedirects keeps the host's transport and timeout but hands 3xx
// responses back instead of following them with the API key attached.
func withoutRedirects(c *http.Client) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &http.Client{
		Transport: c.Transport,
		Timeout:   c.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (t *SoosClient) StartAnalysis(ctx context.Context, sc scancontext.ScanContext) (StartResponse, error) {
	u, err := buildStartAnalysisURL(t.apiBaseURL, t.credentials.ClientID)
	if err != nil {
		return StartResponse{}, scanerrors.New(scanerrors.Configuration, opStartAnalysis, err)
	}

	body, err := json.Marshal(newStartAnalysisRequest(sc))
	if err != nil {
		return StartResponse{}, scanerrors.New(scanerrors.RemoteFailure, opStartAnalysis, err)
	}

	var resp startAnalysisResponse
	if err := t.do(ctx, opStartAnalysis, http.MethodPost, u.String(), body, &resp); err != nil {
		return StartResponse{}, err
	}

	if resp.ScanStatusURL == "" {
		return StartResponse{}, scanerrors.New(scanerrors.RemoteFailure, opStartAnalysis, errors.New("response did not contain a scan status URL"))
	}

	return StartResponse{
		Handle:    ScanHandle(resp.ScanStatusURL),
		ReportURL: resp.ScanURL,
		ScanID:    resp.ScanID,
	}, nil
}

func (t *SoosClient) FetchResult(ctx context.Context, handle ScanHandle) (*AnalysisResult, error) {
	u, err := url.Parse(string(handle))
	if err != nil || !u.IsAbs() {
		return nil, scanerrors.New(scanerrors.RemoteFailure, opFetchResult, errors.New("scan handle is not an absolute URL"))
	}

	var resp scanStatusResponse
	if err := t.do(ctx, opFetchResult, http.MethodGet, u.String(), nil, &resp); err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Status:       ParseStatus(resp.Status),
		RemoteStatus: resp.Status,
		ReportURL:    resp.ScanURL,
		Message:      resp.ErrorMessage,
	}
	if resp.Violations != nil {
		result.Violations = *resp.Violations
	}
	if resp.Vulnerabilities != nil {
		result.Vulnerabilities = *resp.Vulnerabilities
	}
	return result, nil
}

func (t *SoosClient) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return scanerrors.New(scanerrors.RemoteFailure, op, err)
	}

	req.Header.Set(contentTypeHeader, mimeTypeJSON)
	req.Header.Set(apiKeyHeader, t.credentials.APIKey)
	req.Header.Set(correlationIDHeader, t.correlationID)
	req.Header.Set(userAgentHeader, userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close() //nolint:errcheck // errors in deferred close are not critical

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyResponse(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return scanerrors.New(scanerrors.Aborted, op, ctx.Err())
		}
		return scanerrors.New(scanerrors.RemoteFailure, op, fmt.Errorf("malformed response: %w", err))
	}
	return nil
}

func newStartAnalysisRequest(sc scancontext.ScanContext) startAnalysisRequest {
	req := startAnalysisRequest{
		ProjectName:          sc.ProjectName,
		Name:                 sc.BuildVersion,
		IntegrationName:      sc.IntegrationName,
		IntegrationType:      constants.IntegrationType,
		BranchName:           sc.BranchName,
		BranchURI:            sc.BranchURI,
		CommitHash:           sc.CommitHash,
		BuildVersion:         sc.BuildVersion,
		BuildURI:             sc.BuildURI,
		OperatingEnvironment: sc.OperatingEnvironment,
		DirsToExclude:        nonNil(sc.DirsToExclude),
		FilesToExclude:       nonNil(sc.FilesToExclude),
	}
	if dev := strings.TrimSpace(sc.ContributingDeveloper); dev != "" {
		req.ContributingDeveloperAudit = []contributingDeveloperAudit{{
			Source:                  constants.ContributingDeveloperSource,
			SourceName:              constants.EnvContributingDeveloper,
			ContributingDeveloperID: dev,
		}}
	}
	return req
}

func buildStartAnalysisURL(apiBaseURL, clientID string) (*url.URL, error) {
	u, err := url.Parse(apiBaseURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("api base URI %q is not absolute", apiBaseURL)
	}

	return u.JoinPath("clients", clientID, "scan-types", "sca", "scans"), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andygrunwald/go-jira"
)

var (
	ErrAuthentication = errors.New("authentication error")
	ErrNotExportable  = errors.New("issue is not exportable")
)

//Default timeout for every request sent to Jira
const defaultRequestTimeout = 10 * time.Second

//Endpoint used to check credentials
const myselfPath = "rest/api/latest/myself"

// ExportFormat is a Jira issue view that can be downloaded as a file
type ExportFormat string

const (
	FormatDocument ExportFormat = "doc"
	FormatXML      ExportFormat = "xml"
)

//Default formats, in download order
var exportFormats = []ExportFormat{FormatDocument, FormatXML}

//Issue view path segment for each format
var exportViews = map[ExportFormat]string{
	FormatDocument: "si/jira.issueviews:issue-word",
	FormatXML:      "si/jira.issueviews:issue-xml",
}

// Suffix returns the file extension used both in the export URL and for the saved file
func (f ExportFormat) Suffix() string {
	return string(f)
}

// ParseExportFormat converts a user supplied format name into an ExportFormat
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "doc", "document", "word":
		return FormatDocument, nil
	case "xml":
		return FormatXML, nil
	}
	return "", fmt.Errorf("invalid export format %q. Please select one of: %+q", name, exportFormats)
}

// JiraClient wraps go-jira with the calls needed to export issues
type JiraClient struct {
	inner *jira.Client
	//Same basic auth client go-jira uses, for raw downloads
	httpClient *http.Client
}

// NewJiraClient creates a client that sends username and token as basic auth on every request
func NewJiraClient(baseURL, username, token string, timeout time.Duration) (*JiraClient, error) {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	tp := jira.BasicAuthTransport{
		Username: username,
		Password: token,
	}
	httpClient := tp.Client()
	httpClient.Timeout = timeout

	inner, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, err
	}

	return &JiraClient{inner: inner, httpClient: httpClient}, nil
}

// VerifyIdentity requests the current user. Credentials are accepted only on HTTP 200,
// any other status or a transport error is ErrAuthentication.
func (c *JiraClient) VerifyIdentity(ctx context.Context) (*jira.User, error) {
	req, err := c.inner.NewRequestWithContext(ctx, http.MethodGet, myselfPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}

	resp, err := c.inner.Do(req, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAuthentication, c.handleError(resp, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrAuthentication, resp.StatusCode)
	}

	//The status alone decides, user details are only used for logging
	user := &jira.User{}
	_ = json.NewDecoder(resp.Body).Decode(user)
	return user, nil
}

// exportPath returns the issue view path relative to the Jira base URL
func exportPath(issueKey string, format ExportFormat) string {
	key := url.PathEscape(issueKey)
	return fmt.Sprintf("%s/%s/%s.%s", exportViews[format], key, key, format.Suffix())
}

// ExportURL returns the absolute URL of the export view for the issue
func (c *JiraClient) ExportURL(issueKey string, format ExportFormat) (string, error) {
	req, err := c.inner.NewRequest(http.MethodGet, exportPath(issueKey, format), nil)
	if err != nil {
		return "", err
	}
	return req.URL.String(), nil
}

// ExportIssue downloads the issue in the given format.
// A 404 is returned as ErrNotExportable. For any other status the response is
// returned as is and the caller must close its body.
func (c *JiraClient) ExportIssue(ctx context.Context, issueKey string, format ExportFormat) (*http.Response, error) {
	if _, ok := exportViews[format]; !ok {
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	req, err := c.inner.NewRequestWithContext(ctx, http.MethodGet, exportPath(issueKey, format), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s.%s: %w", issueKey, format.Suffix(), ErrNotExportable)
	}

	return resp, nil
}

// handleError processes error responses from Jira API calls
// Returns a formatted error message including the response body if available
func (c *JiraClient) handleError(resp *jira.Response, err error) string {
	message := err.Error()
	if resp != nil && resp.Response != nil && resp.Body != nil {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if len(body) > 0 {
			message = fmt.Sprintf("%s resp: %s", message, string(body))
		}
	}
	return message
}

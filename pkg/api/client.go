// Package api is the low-level HTTP binding for the Universal Ads API.
//
// Each endpoint has a request builder (New<Op>Request) and a Client method
// that builds the request, runs the request editors and sends it. Editors
// run after the URL, query string and body are final, so an editor that
// signs the request sees exactly what goes on the wire.
//
// Most callers should use pkg/client, which adds signing, retries and
// response mapping on top of this package.
package api

import (
	"context"
	"net/http"
	"strings"
)

// HttpRequestDoer performs HTTP requests.
//
// The standard *http.Client implements this interface.
//
//nolint:revive // name kept for parity with oapi-codegen clients
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RequestEditorFn is called on every request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

// ClientOption configures a Client.
type ClientOption func(*Client) error

// Client sends requests to the Universal Ads API.
type Client struct {
	// Server is the base URL with a trailing slash, for example
	// "https://api.universalads.com/v1/". Operation paths are resolved
	// relative to it.
	Server string

	// Client performs the HTTP requests. Defaults to &http.Client{}.
	Client HttpRequestDoer

	// RequestEditors run on every request, before per-call editors.
	RequestEditors []RequestEditorFn
}

// NewClient creates a new Client with reasonable defaults.
func NewClient(server string, opts ...ClientOption) (*Client, error) {
	client := Client{
		Server: server,
	}
	for _, o := range opts {
		if err := o(&client); err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(client.Server, "/") {
		client.Server += "/"
	}
	if client.Client == nil {
		client.Client = &http.Client{}
	}
	return &client, nil
}

// WithHTTPClient sets the doer used to send requests.
func WithHTTPClient(doer HttpRequestDoer) ClientOption {
	return func(c *Client) error {
		c.Client = doer
		return nil
	}
}

// WithBaseURL overrides the server URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) error {
		c.Server = baseURL
		return nil
	}
}

// WithRequestEditorFn adds an editor that runs on every request.
func WithRequestEditorFn(fn RequestEditorFn) ClientOption {
	return func(c *Client) error {
		c.RequestEditors = append(c.RequestEditors, fn)
		return nil
	}
}

// ListCreatives sends GET /creative.
func (c *Client) ListCreatives(ctx context.Context, params *ListCreativesParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewListCreativesRequest(c.Server, params)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// GetCreative sends GET /creative/{id}.
func (c *Client) GetCreative(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetCreativeRequest(c.Server, id)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// CreateCreative sends POST /creative.
func (c *Client) CreateCreative(ctx context.Context, body CreateCreativeJSONRequestBody, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewCreateCreativeRequest(c.Server, body)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// UpdateCreative sends PUT /creative/{id}.
func (c *Client) UpdateCreative(ctx context.Context, id string, body UpdateCreativeJSONRequestBody, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewUpdateCreativeRequest(c.Server, id, body)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// DeleteCreative sends DELETE /creative/{id}.
func (c *Client) DeleteCreative(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewDeleteCreativeRequest(c.Server, id)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// CreateMedia sends POST /media.
func (c *Client) CreateMedia(ctx context.Context, body CreateMediaJSONRequestBody, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewCreateMediaRequest(c.Server, body)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// VerifyMedia sends POST /media/{id}/verify.
func (c *Client) VerifyMedia(ctx context.Context, id string, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewVerifyMediaRequest(c.Server, id)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// GetCampaignReport sends GET /report/campaign.
func (c *Client) GetCampaignReport(ctx context.Context, params *ReportParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetCampaignReportRequest(c.Server, params)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// GetAdsetReport sends GET /report/adset.
func (c *Client) GetAdsetReport(ctx context.Context, params *ReportParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetAdsetReportRequest(c.Server, params)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

// GetAdReport sends GET /report/ad.
func (c *Client) GetAdReport(ctx context.Context, params *ReportParams, reqEditors ...RequestEditorFn) (*http.Response, error) {
	req, err := NewGetAdReportRequest(c.Server, params)
	if err != nil {
		return nil, &RequestError{Op: "build", Err: err}
	}
	return c.send(ctx, req, reqEditors)
}

func (c *Client) send(ctx context.Context, req *http.Request, reqEditors []RequestEditorFn) (*http.Response, error) {
	req = req.WithContext(ctx)
	if err := c.applyEditors(ctx, req, reqEditors); err != nil {
		return nil, &RequestError{Op: "edit", Err: err}
	}
	return c.Client.Do(req)
}

func (c *Client) applyEditors(ctx context.Context, req *http.Request, additionalEditors []RequestEditorFn) error {
	for _, r := range c.RequestEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	for _, r := range additionalEditors {
		if err := r(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

// RequestError reports a request that could not be built or edited. The
// request was not sent.
type RequestError struct {
	Op  string
	Err error
}

func (e *RequestError) Error() string {
	return e.Op + " request: " + e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

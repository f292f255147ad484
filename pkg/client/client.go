package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/api"
	"github.com/universal-ads/universal-ads-sdk-go/pkg/auth"
)

// Client is a signed, retrying client for the Universal Ads API.
//
// A Client is safe for concurrent use by multiple goroutines. It maintains
// an internal HTTP connection pool, shared across requests.
//
// Do not copy a Client after first use.
type Client struct {
	raw        *api.Client
	auth       *auth.Authenticator
	httpClient api.HttpRequestDoer
	opts       *Options
	retrier    *Retrier
	logger     *slog.Logger
}

// New creates a client from an API key and a PEM-encoded EC private key.
//
// A key that cannot be loaded is reported as *AuthenticationError wrapping
// *auth.KeyFormatError; no Client is returned.
func New(apiKey string, privateKeyPEM []byte, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Validate options
	if options.baseURL == "" {
		return nil, errors.New("baseURL cannot be empty")
	}
	if options.timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}
	if options.maxRetries < 0 {
		return nil, errors.New("maxRetries cannot be negative")
	}
	if options.retryWaitMin <= 0 {
		return nil, errors.New("retryWaitMin must be positive")
	}
	if options.retryWaitMax <= 0 {
		return nil, errors.New("retryWaitMax must be positive")
	}
	if options.retryWaitMin >= options.retryWaitMax {
		return nil, errors.New("retryWaitMin must be less than retryWaitMax")
	}
	if options.logger == nil {
		options.logger = slog.New(slog.DiscardHandler)
	}
	if options.now == nil {
		options.now = time.Now
	}

	authenticator, err := auth.New(apiKey, privateKeyPEM, auth.WithClock(options.now))
	if err != nil {
		return nil, &AuthenticationError{Err: err}
	}

	httpClient := options.httpClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: options.timeout,
		}
	}

	c := &Client{
		auth:       authenticator,
		httpClient: httpClient,
		opts:       options,
		retrier:    newRetrier(options),
		logger:     options.logger,
	}

	rawClient, err := api.NewClient(options.baseURL,
		api.WithHTTPClient(httpClient),
		api.WithRequestEditorFn(c.signRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	c.raw = rawClient

	return c, nil
}

// Authenticator returns the request signer used by the client.
func (c *Client) Authenticator() *auth.Authenticator {
	return c.auth
}

// BaseURL returns the API base URL, with a trailing slash.
func (c *Client) BaseURL() string {
	return c.raw.Server
}

// ListCreatives lists creatives.
func (c *Client) ListCreatives(ctx context.Context, opts ListCreativesOptions) (Result, error) {
	params := buildListCreativesParams(opts)
	return c.do(ctx, http.MethodGet, "list creatives", func(ctx context.Context) (*http.Response, error) {
		return c.raw.ListCreatives(ctx, params)
	})
}

// GetCreative fetches one creative.
func (c *Client) GetCreative(ctx context.Context, creativeID string) (Result, error) {
	return c.do(ctx, http.MethodGet, "get creative", func(ctx context.Context) (*http.Response, error) {
		return c.raw.GetCreative(ctx, creativeID)
	})
}

// CreateCreative creates a creative from an uploaded media item.
func (c *Client) CreateCreative(ctx context.Context, creative NewCreative) (Result, error) {
	body := api.CreateCreativeJSONRequestBody{
		AdAccountID: creative.AdAccountID,
		Name:        creative.Name,
		MediaID:     creative.MediaID,
	}
	return c.do(ctx, http.MethodPost, "create creative", func(ctx context.Context) (*http.Response, error) {
		return c.raw.CreateCreative(ctx, body)
	})
}

// UpdateCreative changes the fields of a creative listed in update.
func (c *Client) UpdateCreative(ctx context.Context, creativeID string, update CreativeUpdate) (Result, error) {
	body := api.UpdateCreativeJSONRequestBody(update.body())
	return c.do(ctx, http.MethodPut, "update creative", func(ctx context.Context) (*http.Response, error) {
		return c.raw.UpdateCreative(ctx, creativeID, body)
	})
}

// DeleteCreative deletes a creative. The result is usually empty.
func (c *Client) DeleteCreative(ctx context.Context, creativeID string) (Result, error) {
	return c.do(ctx, http.MethodDelete, "delete creative", func(ctx context.Context) (*http.Response, error) {
		return c.raw.DeleteCreative(ctx, creativeID)
	})
}

// CreateMediaUpload requests an upload slot. The result carries the
// presigned "upload_url" and the "media_id" to verify once the file is
// uploaded.
func (c *Client) CreateMediaUpload(ctx context.Context, upload MediaUpload) (Result, error) {
	body := api.CreateMediaJSONRequestBody{
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
	}
	return c.do(ctx, http.MethodPost, "create media upload", func(ctx context.Context) (*http.Response, error) {
		return c.raw.CreateMedia(ctx, body)
	})
}

// VerifyMedia confirms that a media upload is complete.
func (c *Client) VerifyMedia(ctx context.Context, mediaID string) (Result, error) {
	return c.do(ctx, http.MethodPost, "verify media", func(ctx context.Context) (*http.Response, error) {
		return c.raw.VerifyMedia(ctx, mediaID)
	})
}

// CampaignReport fetches campaign performance rows. IDs filters by campaign.
func (c *Client) CampaignReport(ctx context.Context, query ReportQuery) (Result, error) {
	params := buildReportParams(query)
	return c.do(ctx, http.MethodGet, "campaign report", func(ctx context.Context) (*http.Response, error) {
		return c.raw.GetCampaignReport(ctx, params)
	})
}

// AdSetReport fetches adset performance rows. IDs filters by adset.
func (c *Client) AdSetReport(ctx context.Context, query ReportQuery) (Result, error) {
	params := buildReportParams(query)
	return c.do(ctx, http.MethodGet, "adset report", func(ctx context.Context) (*http.Response, error) {
		return c.raw.GetAdsetReport(ctx, params)
	})
}

// AdReport fetches ad performance rows. IDs filters by ad.
func (c *Client) AdReport(ctx context.Context, query ReportQuery) (Result, error) {
	params := buildReportParams(query)
	return c.do(ctx, http.MethodGet, "ad report", func(ctx context.Context) (*http.Response, error) {
		return c.raw.GetAdReport(ctx, params)
	})
}

type rawCall func(ctx context.Context) (*http.Response, error)

// do runs call under the retry policy for method and maps the outcome. Each
// attempt builds and signs a new request.
func (c *Client) do(ctx context.Context, method, op string, call rawCall) (Result, error) {
	var result Result
	start := time.Now()

	attempts, err := c.retrier.Do(ctx, method, func() error {
		resp, err := call(ctx)
		if err != nil {
			var reqErr *api.RequestError
			if errors.As(err, &reqErr) {
				return fmt.Errorf("%s: %w", op, reqErr.Err)
			}
			return &TransportError{Op: op, Err: err}
		}
		defer func() { _ = resp.Body.Close() }()

		var parseErr error
		result, parseErr = parseResponse(resp)
		if parseErr != nil {
			var te *TransportError
			if errors.As(parseErr, &te) {
				te.Op = op
			}
		}
		return parseErr
	})

	if err != nil {
		var te *TransportError
		switch {
		case errors.As(err, &te):
			if te.Op == "" {
				te.Op = op
			}
			te.Attempts = attempts
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			err = &TransportError{Op: op, Attempts: attempts, Err: err}
		}

		c.logger.DebugContext(ctx, "request failed",
			slog.String("op", op),
			slog.Int("attempts", attempts),
			slog.Int("status", StatusCode(err)),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return nil, err
	}

	c.logger.DebugContext(ctx, "request completed",
		slog.String("op", op),
		slog.Int("attempts", attempts),
		slog.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// signRequest adds the authentication headers. It runs after the request
// URL and body are final, so the signature covers the bytes on the wire.
func (c *Client) signRequest(_ context.Context, req *http.Request) error {
	body, err := requestBody(req)
	if err != nil {
		return err
	}

	headers, err := c.auth.AuthHeaders(req.Method, req.URL.String(), string(body))
	if err != nil {
		return err
	}

	headers.Apply(req.Header)
	req.Header.Set("Content-Type", api.ContentTypeJSON)
	return nil
}

// requestBody returns the request body without consuming it.
func requestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}

	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		defer func() { _ = rc.Close() }()
		return io.ReadAll(rc)
	}

	b, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	_ = req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(b))
	return b, nil
}

func parseResponse(resp *http.Response) (Result, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, newAPIError(resp, body)
	}

	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
		return Result{}, nil
	}

	return decodeResult(body)
}

func decodeResult(body []byte) (Result, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if m, ok := v.(map[string]any); ok {
		return Result(m), nil
	}
	return Result{"data": v}, nil
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	data := Result{"message": string(body)}
	if isJSONObject(body) {
		if decoded, err := decodeResult(body); err == nil {
			data = decoded
		}
	}

	message := "Unknown error"
	if m, ok := data["message"].(string); ok && m != "" {
		message = m
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Data:       map[string]any(data),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

func isJSONObject(body []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(body), []byte("{"))
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func buildListCreativesParams(opts ListCreativesOptions) *api.ListCreativesParams {
	params := &api.ListCreativesParams{}

	if opts.AdAccountID != "" {
		params.AdAccountID = &opts.AdAccountID
	}
	if opts.Limit > 0 {
		limit := opts.Limit
		params.Limit = &limit
	}
	if opts.Offset > 0 {
		offset := opts.Offset
		params.Offset = &offset
	}
	if opts.Sort != "" {
		params.Sort = &opts.Sort
	}

	return params
}

func buildReportParams(query ReportQuery) *api.ReportParams {
	params := &api.ReportParams{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
	}

	if query.AdAccountID != "" {
		params.AdAccountID = &query.AdAccountID
	}
	if len(query.IDs) > 0 {
		ids := append([]string(nil), query.IDs...)
		params.IDs = &ids
	}
	if query.Limit > 0 {
		limit := query.Limit
		params.Limit = &limit
	}
	if query.Offset > 0 {
		offset := query.Offset
		params.Offset = &offset
	}

	return params
}

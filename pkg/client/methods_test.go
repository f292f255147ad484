package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/auth"
)

type recordedRequest struct {
	method string
	path   string
	query  url.Values
	body   string
	header http.Header
	uri    string
}

// recordingServer returns a server that records every request and answers
// with the given status and body.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, func() []recordedRequest) {
	t.Helper()

	var mu sync.Mutex
	var reqs []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{
			method: r.Method,
			path:   r.URL.EscapedPath(),
			query:  r.URL.Query(),
			body:   string(b),
			header: r.Header.Clone(),
			uri:    r.URL.RequestURI(),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

// TestEndpoints tests method, path, query and body for every endpoint
func TestEndpoints(t *testing.T) {
	name := "X"

	tests := []struct {
		name      string
		call      func(ctx context.Context, c *Client) (Result, error)
		wantMeth  string
		wantPath  string
		wantQuery url.Values
		wantBody  map[string]any
	}{
		{
			name: "list creatives with limit only",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.ListCreatives(ctx, ListCreativesOptions{Limit: 10})
			},
			wantMeth:  http.MethodGet,
			wantPath:  "/v1/creative",
			wantQuery: url.Values{"limit": {"10"}},
		},
		{
			name: "list creatives with all filters",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.ListCreatives(ctx, ListCreativesOptions{
					AdAccountID: "acc1", Limit: 20, Offset: 40, Sort: "name_asc",
				})
			},
			wantMeth: http.MethodGet,
			wantPath: "/v1/creative",
			wantQuery: url.Values{
				"adaccount_id": {"acc1"},
				"limit":        {"20"},
				"offset":       {"40"},
				"sort":         {"name_asc"},
			},
		},
		{
			name: "list creatives without filters",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.ListCreatives(ctx, ListCreativesOptions{})
			},
			wantMeth:  http.MethodGet,
			wantPath:  "/v1/creative",
			wantQuery: url.Values{},
		},
		{
			name: "get creative",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.GetCreative(ctx, "abc")
			},
			wantMeth:  http.MethodGet,
			wantPath:  "/v1/creative/abc",
			wantQuery: url.Values{},
		},
		{
			name: "get creative escapes id",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.GetCreative(ctx, "a/b c")
			},
			wantMeth:  http.MethodGet,
			wantPath:  "/v1/creative/a%2Fb%20c",
			wantQuery: url.Values{},
		},
		{
			name: "create creative",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.CreateCreative(ctx, NewCreative{AdAccountID: "acc1", Name: "Banner", MediaID: "m1"})
			},
			wantMeth:  http.MethodPost,
			wantPath:  "/v1/creative",
			wantQuery: url.Values{},
			wantBody:  map[string]any{"adaccount_id": "acc1", "name": "Banner", "media_id": "m1"},
		},
		{
			name: "update creative",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.UpdateCreative(ctx, "abc", CreativeUpdate{Name: &name})
			},
			wantMeth:  http.MethodPut,
			wantPath:  "/v1/creative/abc",
			wantQuery: url.Values{},
			wantBody:  map[string]any{"name": "X"},
		},
		{
			name: "update creative with no fields",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.UpdateCreative(ctx, "abc", CreativeUpdate{})
			},
			wantMeth:  http.MethodPut,
			wantPath:  "/v1/creative/abc",
			wantQuery: url.Values{},
			wantBody:  map[string]any{},
		},
		{
			name: "delete creative",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.DeleteCreative(ctx, "abc")
			},
			wantMeth:  http.MethodDelete,
			wantPath:  "/v1/creative/abc",
			wantQuery: url.Values{},
		},
		{
			name: "create media upload",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.CreateMediaUpload(ctx, MediaUpload{Filename: "a.png", ContentType: "image/png"})
			},
			wantMeth:  http.MethodPost,
			wantPath:  "/v1/media",
			wantQuery: url.Values{},
			wantBody:  map[string]any{"filename": "a.png", "content_type": "image/png"},
		},
		{
			name: "upload media defaults filename",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.UploadMedia(ctx, "/tmp/assets/banner.jpg", "image/jpeg", "")
			},
			wantMeth:  http.MethodPost,
			wantPath:  "/v1/media",
			wantQuery: url.Values{},
			wantBody:  map[string]any{"filename": "banner.jpg", "content_type": "image/jpeg"},
		},
		{
			name: "upload media explicit filename",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.UploadMedia(ctx, "/tmp/x.bin", "video/mp4", "clip.mp4")
			},
			wantMeth:  http.MethodPost,
			wantPath:  "/v1/media",
			wantQuery: url.Values{},
			wantBody:  map[string]any{"filename": "clip.mp4", "content_type": "video/mp4"},
		},
		{
			name: "verify media",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.VerifyMedia(ctx, "m1")
			},
			wantMeth:  http.MethodPost,
			wantPath:  "/v1/media/m1/verify",
			wantQuery: url.Values{},
		},
		{
			name: "campaign report",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.CampaignReport(ctx, ReportQuery{
					StartDate: "2024-01-01", EndDate: "2024-01-31", IDs: []string{"c1", "c2"},
				})
			},
			wantMeth: http.MethodGet,
			wantPath: "/v1/report/campaign",
			wantQuery: url.Values{
				"start_date":   {"2024-01-01"},
				"end_date":     {"2024-01-31"},
				"campaign_ids": {"c1,c2"},
			},
		},
		{
			name: "adset report",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.AdSetReport(ctx, ReportQuery{
					StartDate: "2024-01-01", EndDate: "2024-01-07", AdAccountID: "acc1", Limit: 50, Offset: 100,
				})
			},
			wantMeth: http.MethodGet,
			wantPath: "/v1/report/adset",
			wantQuery: url.Values{
				"start_date":   {"2024-01-01"},
				"end_date":     {"2024-01-07"},
				"adaccount_id": {"acc1"},
				"limit":        {"50"},
				"offset":       {"100"},
			},
		},
		{
			name: "ad report",
			call: func(ctx context.Context, c *Client) (Result, error) {
				return c.AdReport(ctx, ReportQuery{
					StartDate: "2024-02-01", EndDate: "2024-02-29", IDs: []string{"ad9"},
				})
			},
			wantMeth: http.MethodGet,
			wantPath: "/v1/report/ad",
			wantQuery: url.Values{
				"start_date": {"2024-02-01"},
				"end_date":   {"2024-02-29"},
				"ad_ids":     {"ad9"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests := recordingServer(t, http.StatusOK, `{"ok":true}`)
			c := newTestClient(t, server.URL+"/v1")

			result, err := tt.call(context.Background(), c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result["ok"] != true {
				t.Errorf("unexpected result %v", result)
			}

			reqs := requests()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			got := reqs[0]

			if got.method != tt.wantMeth {
				t.Errorf("expected method %s, got %s", tt.wantMeth, got.method)
			}
			if got.path != tt.wantPath {
				t.Errorf("expected path %s, got %s", tt.wantPath, got.path)
			}
			if len(got.query) != len(tt.wantQuery) {
				t.Errorf("expected query %v, got %v", tt.wantQuery, got.query)
			}
			for k, v := range tt.wantQuery {
				if got.query.Get(k) != v[0] {
					t.Errorf("query %s = %q, want %q", k, got.query.Get(k), v[0])
				}
			}

			if tt.wantBody == nil {
				if got.body != "" {
					t.Errorf("expected empty body, got %q", got.body)
				}
			} else {
				var body map[string]any
				if err := json.Unmarshal([]byte(got.body), &body); err != nil {
					t.Fatalf("body is not JSON: %v (%q)", err, got.body)
				}
				if len(body) != len(tt.wantBody) {
					t.Errorf("expected body %v, got %v", tt.wantBody, body)
				}
				for k, v := range tt.wantBody {
					if body[k] != v {
						t.Errorf("body[%s] = %v, want %v", k, body[k], v)
					}
				}
			}

			if got.header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %q", got.header.Get("Content-Type"))
			}
			if got.header.Get(auth.HeaderSignature) == "" {
				t.Error("expected signature header")
			}
		})
	}
}

// TestSignatureCoversBody tests that the signed body matches the bytes sent
func TestSignatureCoversBody(t *testing.T) {
	key, pemBytes := generateTestKey(t)
	server, requests := recordingServer(t, http.StatusOK, `{"id":"abc","name":"X"}`)

	c, err := New(testAPIKey, pemBytes, WithBaseURL(server.URL+"/v1"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	name := "X"
	result, err := c.UpdateCreative(context.Background(), "abc", CreativeUpdate{Name: &name})
	if err != nil {
		t.Fatalf("UpdateCreative() error: %v", err)
	}
	if result.String("name") != "X" {
		t.Errorf("expected name X, got %q", result.String("name"))
	}

	got := requests()[0]
	if got.body != `{"name":"X"}` {
		t.Errorf("unexpected body %q", got.body)
	}

	canonical := auth.CanonicalRequest(testAPIKey, http.MethodPut, server.URL+got.uri,
		got.header.Get(auth.HeaderTimestamp), got.body)
	if !strings.HasPrefix(canonical, "PUT\n/v1/creative/abc\n\n") {
		t.Errorf("unexpected canonical request %q", canonical)
	}
	if err := auth.Verify(&key.PublicKey, canonical, got.header.Get(auth.HeaderSignature)); err != nil {
		t.Errorf("signature does not verify: %v", err)
	}
}

// TestResponseMapping tests how response bodies become results and errors
func TestResponseMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantStatus  int
		wantMessage string
		validate    func(t *testing.T, r Result, err error)
	}{
		{
			name:   "object body",
			status: http.StatusOK,
			body:   `{"id":"x"}`,
			validate: func(t *testing.T, r Result, _ error) {
				if r.String("id") != "x" {
					t.Errorf("expected id x, got %v", r)
				}
			},
		},
		{
			name:   "no content",
			status: http.StatusNoContent,
			validate: func(t *testing.T, r Result, _ error) {
				if r == nil || len(r) != 0 {
					t.Errorf("expected empty result, got %#v", r)
				}
			},
		},
		{
			name:   "empty 200 body",
			status: http.StatusOK,
			body:   "",
			validate: func(t *testing.T, r Result, _ error) {
				if r == nil || len(r) != 0 {
					t.Errorf("expected empty result, got %#v", r)
				}
			},
		},
		{
			name:   "array body is wrapped",
			status: http.StatusOK,
			body:   `[{"id":"a"},{"id":"b"}]`,
			validate: func(t *testing.T, r Result, _ error) {
				items := r.List("data")
				if len(items) != 2 || items[1].String("id") != "b" {
					t.Errorf("unexpected wrapped result %v", r)
				}
			},
		},
		{
			name:   "large numbers keep precision",
			status: http.StatusOK,
			body:   `{"id":12345678901234567890}`,
			validate: func(t *testing.T, r Result, _ error) {
				if r.String("id") != "12345678901234567890" {
					t.Errorf("unexpected id %q", r.String("id"))
				}
			},
		},
		{
			name:    "invalid JSON",
			status:  http.StatusOK,
			body:    `{"id":`,
			wantErr: true,
			validate: func(t *testing.T, _ Result, err error) {
				if !errors.Is(err, ErrInvalidResponse) {
					t.Errorf("expected ErrInvalidResponse, got %v", err)
				}
			},
		},
		{
			name:        "validation error",
			status:      http.StatusUnprocessableEntity,
			body:        `{"message":"Validation failed","errors":[{"field":"name","message":"required"}]}`,
			wantErr:     true,
			wantStatus:  422,
			wantMessage: "Validation failed",
			validate: func(t *testing.T, _ Result, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %T", err)
				}
				errs, ok := apiErr.Data["errors"].([]any)
				if !ok || len(errs) != 1 {
					t.Fatalf("unexpected errors field %v", apiErr.Data["errors"])
				}
				first, _ := errs[0].(map[string]any)
				if first["field"] != "name" {
					t.Errorf("expected field name, got %v", first["field"])
				}
			},
		},
		{
			name:        "error without message",
			status:      http.StatusBadRequest,
			body:        `{"code":"bad"}`,
			wantErr:     true,
			wantStatus:  400,
			wantMessage: "Unknown error",
		},
		{
			name:        "non-JSON error body",
			status:      http.StatusNotFound,
			body:        "not found",
			wantErr:     true,
			wantStatus:  404,
			wantMessage: "not found",
			validate: func(t *testing.T, _ Result, err error) {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Data["message"] != "not found" {
					t.Errorf("expected raw message in data, got %v", apiErr.Data)
				}
			},
		},
		{
			name:        "empty error body",
			status:      http.StatusForbidden,
			wantErr:     true,
			wantStatus:  403,
			wantMessage: "Unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := recordingServer(t, tt.status, tt.body)
			c := newTestClient(t, server.URL)

			result, err := c.GetCreative(context.Background(), "x")

			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantStatus != 0 && StatusCode(err) != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, StatusCode(err))
			}
			if tt.wantMessage != "" {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected APIError, got %T", err)
				}
				if apiErr.Message != tt.wantMessage {
					t.Errorf("expected message %q, got %q", tt.wantMessage, apiErr.Message)
				}
			}
			if tt.validate != nil {
				tt.validate(t, result, err)
			}
		})
	}
}

// TestRetryBehavior tests which responses are retried
func TestRetryBehavior(t *testing.T) {
	getCreative := func(c *Client) error {
		_, err := c.GetCreative(context.Background(), "abc")
		return err
	}
	createCreative := func(c *Client) error {
		_, err := c.CreateCreative(context.Background(), NewCreative{AdAccountID: "acc", Name: "n", MediaID: "m"})
		return err
	}

	tests := []struct {
		name          string
		statuses      []int
		opts          []Option
		call          func(c *Client) error
		wantErr       bool
		wantRequests  int
		wantStatus    int
		wantTransport bool
	}{
		{
			name:         "503 then success",
			statuses:     []int{503, 200},
			wantRequests: 2,
		},
		{
			name:         "429 twice then success",
			statuses:     []int{429, 429, 200},
			wantRequests: 3,
		},
		{
			name:         "400 is not retried",
			statuses:     []int{400, 200},
			wantErr:      true,
			wantRequests: 1,
			wantStatus:   400,
		},
		{
			name:         "422 is not retried",
			statuses:     []int{422, 200},
			wantErr:      true,
			wantRequests: 1,
			wantStatus:   422,
		},
		{
			name:          "retries exhausted",
			statuses:      []int{500, 502, 503, 504},
			wantErr:       true,
			wantRequests:  4,
			wantStatus:    504,
			wantTransport: true,
		},
		{
			name:          "retries exhausted on 503",
			statuses:      []int{503},
			wantErr:       true,
			wantRequests:  4,
			wantStatus:    503,
			wantTransport: true,
		},
		{
			name:         "rate limit retry disabled",
			statuses:     []int{429, 200},
			opts:         []Option{WithoutRateLimitRetry()},
			wantErr:      true,
			wantRequests: 1,
			wantStatus:   429,
		},
		{
			name:          "retries disabled",
			statuses:      []int{503, 200},
			opts:          []Option{WithMaxRetries(0)},
			wantErr:       true,
			wantRequests:  1,
			wantStatus:    503,
			wantTransport: true,
		},
		{
			name:         "custom retry statuses",
			statuses:     []int{409, 200},
			opts:         []Option{WithRetryStatuses(409)},
			wantRequests: 2,
		},
		{
			name:         "create is not retried on 502",
			statuses:     []int{502, 201},
			call:         createCreative,
			wantErr:      true,
			wantRequests: 1,
			wantStatus:   502,
		},
		{
			name:         "create is not retried on 429",
			statuses:     []int{429, 201},
			call:         createCreative,
			wantErr:      true,
			wantRequests: 1,
			wantStatus:   429,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			count := 0
			var timestamps []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				mu.Lock()
				status := tt.statuses[min(count, len(tt.statuses)-1)]
				count++
				timestamps = append(timestamps, r.Header.Get(auth.HeaderTimestamp))
				mu.Unlock()

				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"message":"status ` + http.StatusText(status) + `"}`))
			}))
			defer server.Close()

			call := tt.call
			if call == nil {
				call = getCreative
			}
			c := newTestClient(t, server.URL, tt.opts...)
			err := call(c)

			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if count != tt.wantRequests {
				t.Errorf("expected %d requests, got %d", tt.wantRequests, count)
			}
			if tt.wantStatus != 0 && StatusCode(err) != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, StatusCode(err))
			}
			if tt.wantErr && IsTransportError(err) != tt.wantTransport {
				t.Errorf("IsTransportError() = %v, want %v (%T: %v)", IsTransportError(err), tt.wantTransport, err, err)
			}
			if tt.wantTransport {
				var te *TransportError
				if errors.As(err, &te) && te.Attempts != tt.wantRequests {
					t.Errorf("expected %d attempts on the error, got %d", tt.wantRequests, te.Attempts)
				}
				if te != nil && te.Op != "get creative" {
					t.Errorf("expected op 'get creative', got %q", te.Op)
				}
			}
			for i, ts := range timestamps {
				if ts == "" {
					t.Errorf("attempt %d has no timestamp", i+1)
				}
			}
		})
	}
}

// TestRetrySignsEachAttempt tests that retries are signed with a fresh timestamp
func TestRetrySignsEachAttempt(t *testing.T) {
	var mu sync.Mutex
	var timestamps []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		timestamps = append(timestamps, r.Header.Get(auth.HeaderTimestamp))
		if len(timestamps) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	var clockMu sync.Mutex
	tick := int64(1700000000)
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		tick++
		return time.Unix(tick, 0)
	}

	name := "X"
	c := newTestClient(t, server.URL, WithClock(clock))
	if _, err := c.UpdateCreative(context.Background(), "abc", CreativeUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateCreative() error: %v", err)
	}

	if len(timestamps) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(timestamps))
	}
	if timestamps[0] == timestamps[1] {
		t.Errorf("expected fresh timestamp per attempt, got %q twice", timestamps[0])
	}
}

// TestRetryAfterHeader tests that Retry-After is parsed into the error
func TestRetryAfterHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"slow down"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithMaxRetries(0))
	_, err := c.GetCreative(context.Background(), "abc")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.RetryAfter != 7*time.Second {
		t.Errorf("expected RetryAfter 7s, got %v", apiErr.RetryAfter)
	}
	if apiErr.Error() != "API request failed: slow down (status 429)" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}

// TestTransportFailure tests that connection failures are retried and reported
func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	c := newTestClient(t, baseURL, WithMaxRetries(2))
	_, err := c.ListCreatives(context.Background(), ListCreativesOptions{})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", te.Attempts)
	}
	if te.Op != "list creatives" {
		t.Errorf("expected op 'list creatives', got %q", te.Op)
	}
	if IsAPIError(err) {
		t.Error("transport failure must not be an APIError")
	}
}

// TestTransportFailureByMethod tests that connection failures are retried for
// every method and read failures only for idempotent ones
func TestTransportFailureByMethod(t *testing.T) {
	t.Run("create retried when the connection is refused", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		baseURL := server.URL
		server.Close()

		c := newTestClient(t, baseURL, WithMaxRetries(2))
		_, err := c.CreateCreative(context.Background(), NewCreative{AdAccountID: "acc", Name: "n", MediaID: "m"})

		var te *TransportError
		if !errors.As(err, &te) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if te.Attempts != 3 {
			t.Errorf("expected 3 attempts, got %d", te.Attempts)
		}
	})

	slowServer := func(t *testing.T) (*httptest.Server, *atomic.Int32) {
		t.Helper()
		var count atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count.Add(1)
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(server.Close)
		return server, &count
	}

	t.Run("create not retried after a read timeout", func(t *testing.T) {
		server, count := slowServer(t)

		c := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond))
		_, err := c.CreateCreative(context.Background(), NewCreative{AdAccountID: "acc", Name: "n", MediaID: "m"})

		if !IsTransportError(err) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if got := count.Load(); got != 1 {
			t.Errorf("expected 1 request, got %d", got)
		}
	})

	t.Run("get retried after a read timeout", func(t *testing.T) {
		server, count := slowServer(t)

		c := newTestClient(t, server.URL, WithTimeout(50*time.Millisecond), WithMaxRetries(1))
		_, err := c.GetCreative(context.Background(), "abc")

		if !IsTransportError(err) {
			t.Fatalf("expected TransportError, got %T: %v", err, err)
		}
		if got := count.Load(); got != 2 {
			t.Errorf("expected 2 requests, got %d", got)
		}
	})
}

// TestContextCancellation tests that a cancelled context stops retries
func TestContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, WithRetryWait(time.Second, 2*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.GetCreative(ctx, "abc")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if !IsTransportError(err) {
		t.Errorf("expected TransportError, got %T", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("cancellation took too long: %v", time.Since(start))
	}
}

// TestUploadAndVerify tests the full media upload flow
func TestUploadAndVerify(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "banner.png")
	content := []byte("\x89PNG fake image bytes")
	if err := os.WriteFile(filePath, content, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	var uploaded []byte
	var uploadHeader http.Header
	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		uploaded, _ = io.ReadAll(r.Body)
		uploadHeader = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer storage.Close()

	var calls []string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/media":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["filename"] != "banner.png" {
				t.Errorf("expected filename banner.png, got %q", body["filename"])
			}
			_ = json.NewEncoder(w).Encode(map[string]string{
				"media_id":   "m42",
				"upload_url": storage.URL + "/bucket/m42?sig=abc",
			})
		case "/media/m42/verify":
			_, _ = w.Write([]byte(`{"media_id":"m42","status":"verified"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer api.Close()

	c := newTestClient(t, api.URL)
	result, err := c.UploadAndVerify(context.Background(), filePath, "image/png")
	if err != nil {
		t.Fatalf("UploadAndVerify() error: %v", err)
	}

	if result.String("status") != "verified" {
		t.Errorf("unexpected result %v", result)
	}
	if string(uploaded) != string(content) {
		t.Errorf("uploaded %q, want %q", uploaded, content)
	}
	if uploadHeader.Get("Content-Type") != "image/png" {
		t.Errorf("expected upload content type image/png, got %q", uploadHeader.Get("Content-Type"))
	}
	if uploadHeader.Get(auth.HeaderSignature) != "" {
		t.Error("presigned upload must not carry the API signature")
	}
	want := []string{"POST /media", "POST /media/m42/verify"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Errorf("expected calls %v, got %v", want, calls)
	}
}

// TestUploadAndVerifyErrors tests failure modes of the media flow
func TestUploadAndVerifyErrors(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(filePath, []byte("video"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	storage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("SignatureDoesNotMatch"))
	}))
	defer storage.Close()

	tests := []struct {
		name     string
		path     string
		slot     string
		validate func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			path: filepath.Join(dir, "nope.mp4"),
			validate: func(t *testing.T, err error) {
				if !errors.Is(err, os.ErrNotExist) {
					t.Errorf("expected not-exist error, got %v", err)
				}
			},
		},
		{
			name: "slot without media id",
			path: filePath,
			slot: `{"upload_url":"` + storage.URL + `"}`,
			validate: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMissingField) || !strings.Contains(err.Error(), "media_id") {
					t.Errorf("expected missing media_id, got %v", err)
				}
			},
		},
		{
			name: "slot without upload url",
			path: filePath,
			slot: `{"media_id":"m1"}`,
			validate: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMissingField) || !strings.Contains(err.Error(), "upload_url") {
					t.Errorf("expected missing upload_url, got %v", err)
				}
			},
		},
		{
			name: "storage rejects upload",
			path: filePath,
			slot: `{"media_id":"m1","upload_url":"` + storage.URL + `/put"}`,
			validate: func(t *testing.T, err error) {
				var ue *UploadError
				if !errors.As(err, &ue) {
					t.Fatalf("expected UploadError, got %T: %v", err, err)
				}
				if ue.StatusCode != http.StatusForbidden || ue.Body != "SignatureDoesNotMatch" {
					t.Errorf("unexpected upload error %+v", ue)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, requests := recordingServer(t, http.StatusOK, tt.slot)
			c := newTestClient(t, server.URL)

			_, err := c.UploadAndVerify(context.Background(), tt.path, "video/mp4")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			tt.validate(t, err)

			for _, r := range requests() {
				if strings.HasSuffix(r.path, "/verify") {
					t.Error("verify must not be called after a failed upload")
				}
			}
		})
	}
}

package client

import (
	"encoding/json"
	"fmt"
)

// Result is a decoded JSON object returned by the API. A 204 response
// yields an empty, non-nil Result.
//
// Numbers are decoded as json.Number so large identifiers keep their precision.
type Result map[string]any

// Decode converts the result into v, which should be a pointer to a struct
// or map with JSON tags.
func (r Result) Decode(v any) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// String returns the value at key formatted as a string, or "" when absent.
func (r Result) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// List returns the objects in the array at key, skipping non-object items.
// Report rows are listed under "data".
func (r Result) List(key string) []Result {
	items, ok := r[key].([]any)
	if !ok {
		return nil
	}

	out := make([]Result, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Result(m))
		}
	}
	return out
}

// ListCreativesOptions filters GET /creative. Zero values are omitted.
type ListCreativesOptions struct {
	AdAccountID string
	Limit       int
	Offset      int
	Sort        string // "id_asc", "name_desc", ...
}

// NewCreative is the body of a creative creation request.
type NewCreative struct {
	AdAccountID string
	Name        string
	MediaID     string
}

// CreativeUpdate lists the creative fields to change.
//
// Fields are sent to the server without client-side validation. Name, when
// set, overrides a "name" entry in Fields.
type CreativeUpdate struct {
	Name   *string
	Fields map[string]any
}

func (u CreativeUpdate) body() map[string]any {
	body := make(map[string]any, len(u.Fields)+1)
	for k, v := range u.Fields {
		body[k] = v
	}
	if u.Name != nil {
		body["name"] = *u.Name
	}
	return body
}

// MediaUpload describes a file for which an upload slot is requested.
type MediaUpload struct {
	Filename    string
	ContentType string
}

// ReportQuery selects rows for a report. StartDate and EndDate are
// YYYY-MM-DD and are not validated. IDs filters by campaign, adset or ad
// depending on the report. Zero values of the optional fields are omitted.
type ReportQuery struct {
	StartDate   string
	EndDate     string
	AdAccountID string
	IDs         []string
	Limit       int
	Offset      int
}

package api

// ListCreativesParams defines parameters for ListCreatives.
// Nil fields are omitted from the query string.
type ListCreativesParams struct {
	AdAccountID *string
	Limit       *int
	Offset      *int
	// Sort is a field and direction, for example "id_asc" or "name_desc".
	Sort *string
}

// ReportParams defines parameters for the report endpoints.
//
// IDs is sent as campaign_ids, adset_ids or ad_ids depending on the
// report. Dates are YYYY-MM-DD and are passed through unchecked.
type ReportParams struct {
	StartDate   string
	EndDate     string
	AdAccountID *string
	IDs         *[]string
	Limit       *int
	Offset      *int
}

// CreateCreativeJSONRequestBody is the body of POST /creative.
type CreateCreativeJSONRequestBody struct {
	AdAccountID string `json:"adaccount_id"`
	Name        string `json:"name"`
	MediaID     string `json:"media_id"`
}

// UpdateCreativeJSONRequestBody is the body of PUT /creative/{id}.
// Fields are sent as-is; the server validates them.
type UpdateCreativeJSONRequestBody map[string]any

// CreateMediaJSONRequestBody is the body of POST /media.
type CreateMediaJSONRequestBody struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

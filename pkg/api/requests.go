package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/oapi-codegen/runtime"
)

// ContentTypeJSON is the media type of every request body.
const ContentTypeJSON = "application/json"

// Query parameter names.
const (
	ParamAdAccountID = "adaccount_id"
	ParamLimit       = "limit"
	ParamOffset      = "offset"
	ParamSort        = "sort"
	ParamStartDate   = "start_date"
	ParamEndDate     = "end_date"
	ParamCampaignIDs = "campaign_ids"
	ParamAdsetIDs    = "adset_ids"
	ParamAdIDs       = "ad_ids"
)

// NewListCreativesRequest builds GET /creative.
func NewListCreativesRequest(server string, params *ListCreativesParams) (*http.Request, error) {
	queryURL, err := operationURL(server, "/creative")
	if err != nil {
		return nil, err
	}

	if params != nil {
		queryValues := queryURL.Query()
		if err := addFormParam(queryValues, ParamAdAccountID, true, params.AdAccountID); err != nil {
			return nil, err
		}
		if err := addFormParam(queryValues, ParamLimit, true, params.Limit); err != nil {
			return nil, err
		}
		if err := addFormParam(queryValues, ParamOffset, true, params.Offset); err != nil {
			return nil, err
		}
		if err := addFormParam(queryValues, ParamSort, true, params.Sort); err != nil {
			return nil, err
		}
		queryURL.RawQuery = queryValues.Encode()
	}

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewGetCreativeRequest builds GET /creative/{id}.
func NewGetCreativeRequest(server string, id string) (*http.Request, error) {
	queryURL, err := creativeURL(server, id)
	if err != nil {
		return nil, err
	}
	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// NewCreateCreativeRequest builds POST /creative with a JSON body.
func NewCreateCreativeRequest(server string, body CreateCreativeJSONRequestBody) (*http.Request, error) {
	bodyReader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return NewCreateCreativeRequestWithBody(server, ContentTypeJSON, bodyReader)
}

// NewCreateCreativeRequestWithBody builds POST /creative with an arbitrary body.
func NewCreateCreativeRequestWithBody(server string, contentType string, body io.Reader) (*http.Request, error) {
	queryURL, err := operationURL(server, "/creative")
	if err != nil {
		return nil, err
	}
	return newBodyRequest(http.MethodPost, queryURL, contentType, body)
}

// NewUpdateCreativeRequest builds PUT /creative/{id} with a JSON body.
func NewUpdateCreativeRequest(server string, id string, body UpdateCreativeJSONRequestBody) (*http.Request, error) {
	if body == nil {
		body = UpdateCreativeJSONRequestBody{}
	}
	bodyReader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	return NewUpdateCreativeRequestWithBody(server, id, ContentTypeJSON, bodyReader)
}

// NewUpdateCreativeRequestWithBody builds PUT /creative/{id} with an arbitrary body.
func NewUpdateCreativeRequestWithBody(server string, id string, contentType string, body io.Reader) (*http.Request, error) {
	queryURL, err := creativeURL(server, id)
	if err != nil {
		return nil, err
	}
	return newBodyRequest(http.MethodPut, queryURL, contentType, body)
}

// NewDeleteCreativeRequest builds DELETE /creative/{id}.
func NewDeleteCreativeRequest(server string, id string) (*http.Request, error) {
	queryURL, err := creativeURL(server, id)
	if err != nil {
		return nil, err
	}
	return http.NewRequest(http.MethodDelete, queryURL.String(), nil)
}

// NewCreateMediaRequest builds POST /media with a JSON body.
func NewCreateMediaRequest(server string, body CreateMediaJSONRequestBody) (*http.Request, error) {
	bodyReader, err := jsonBody(body)
	if err != nil {
		return nil, err
	}
	queryURL, err := operationURL(server, "/media")
	if err != nil {
		return nil, err
	}
	return newBodyRequest(http.MethodPost, queryURL, ContentTypeJSON, bodyReader)
}

// NewVerifyMediaRequest builds POST /media/{id}/verify. The request has no body.
func NewVerifyMediaRequest(server string, id string) (*http.Request, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return nil, err
	}
	queryURL, err := operationURL(server, fmt.Sprintf("/media/%s/verify", pathParam0))
	if err != nil {
		return nil, err
	}
	return http.NewRequest(http.MethodPost, queryURL.String(), nil)
}

// NewGetCampaignReportRequest builds GET /report/campaign.
func NewGetCampaignReportRequest(server string, params *ReportParams) (*http.Request, error) {
	return newReportRequest(server, "/report/campaign", ParamCampaignIDs, params)
}

// NewGetAdsetReportRequest builds GET /report/adset.
func NewGetAdsetReportRequest(server string, params *ReportParams) (*http.Request, error) {
	return newReportRequest(server, "/report/adset", ParamAdsetIDs, params)
}

// NewGetAdReportRequest builds GET /report/ad.
func NewGetAdReportRequest(server string, params *ReportParams) (*http.Request, error) {
	return newReportRequest(server, "/report/ad", ParamAdIDs, params)
}

func newReportRequest(server, path, idsParam string, params *ReportParams) (*http.Request, error) {
	if params == nil {
		return nil, fmt.Errorf("%s: parameters are required", path)
	}

	queryURL, err := operationURL(server, path)
	if err != nil {
		return nil, err
	}

	queryValues := queryURL.Query()
	if err := addFormParam(queryValues, ParamStartDate, true, &params.StartDate); err != nil {
		return nil, err
	}
	if err := addFormParam(queryValues, ParamEndDate, true, &params.EndDate); err != nil {
		return nil, err
	}
	if err := addFormParam(queryValues, ParamAdAccountID, true, params.AdAccountID); err != nil {
		return nil, err
	}
	if err := addFormParam(queryValues, idsParam, false, params.IDs); err != nil {
		return nil, err
	}
	if err := addFormParam(queryValues, ParamLimit, true, params.Limit); err != nil {
		return nil, err
	}
	if err := addFormParam(queryValues, ParamOffset, true, params.Offset); err != nil {
		return nil, err
	}
	queryURL.RawQuery = queryValues.Encode()

	return http.NewRequest(http.MethodGet, queryURL.String(), nil)
}

// operationURL resolves operationPath against server.
func operationURL(server, operationPath string) (*url.URL, error) {
	serverURL, err := url.Parse(server)
	if err != nil {
		return nil, err
	}

	if operationPath[0] == '/' {
		operationPath = "." + operationPath
	}

	return serverURL.Parse(operationPath)
}

func creativeURL(server, id string) (*url.URL, error) {
	pathParam0, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return nil, err
	}
	return operationURL(server, fmt.Sprintf("/creative/%s", pathParam0))
}

// addFormParam styles a form query parameter and adds it to values.
// Nil pointers are skipped.
func addFormParam[T any](values url.Values, name string, explode bool, value *T) error {
	if value == nil {
		return nil
	}

	queryFrag, err := runtime.StyleParamWithLocation("form", explode, name, runtime.ParamLocationQuery, *value)
	if err != nil {
		return err
	}

	parsed, err := url.ParseQuery(queryFrag)
	if err != nil {
		return err
	}
	for k, v := range parsed {
		for _, v2 := range v {
			values.Add(k, v2)
		}
	}
	return nil
}

func jsonBody(body any) (io.Reader, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(buf), nil
}

func newBodyRequest(method string, queryURL *url.URL, contentType string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequest(method, queryURL.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", contentType)
	return req, nil
}

package auth

import "net/http"

// Header names sent with every request.
const (
	HeaderAPIKey     = "x-api-key"
	HeaderTimestamp  = "x-timestamp"
	HeaderSDKVersion = "x-sdk-version"
	HeaderSDKSource  = "x-sdk-source"
	HeaderSignature  = "x-signature"
)

// SDK identification values.
const (
	SDKVersion = "1.0.0"
	SDKSource  = "universal-ads-go-sdk"
)

// SignedHeaders lists the headers covered by the signature, in canonical order.
const SignedHeaders = HeaderAPIKey + ";" + HeaderTimestamp

// Headers is the authentication header set for a single request.
// A Headers value must not be reused for another request.
type Headers map[string]string

// Apply sets every header on h, replacing existing values.
func (h Headers) Apply(dst http.Header) {
	for name, value := range h {
		dst.Set(name, value)
	}
}

// Timestamp returns the x-timestamp value the signature is bound to.
func (h Headers) Timestamp() string {
	return h[HeaderTimestamp]
}

// Signature returns the base64 signature.
func (h Headers) Signature() string {
	return h[HeaderSignature]
}

// Package auth signs requests for the Universal Ads API.
//
// Every request carries five headers: the API key, a Unix timestamp, two SDK
// identification tags and an ECDSA signature. The signature covers a
// canonical request string built from the method, path, query, the API key
// and timestamp headers, and the body:
//
//	<method>\n<path>\n<query>\nx-api-key:<key>\nx-timestamp:<ts>\n<body>\nx-api-key;x-timestamp
//
// The method is used exactly as given; "get" and "GET" produce different
// strings. The server recomputes the same string, so its layout is part of
// the wire contract.
//
// The SHA-256 digest of the canonical request is signed directly (the
// digest is not hashed again) and the DER-encoded signature is base64
// encoded with the standard alphabet.
//
// An Authenticator holds only immutable state after construction and is
// safe for concurrent use by multiple goroutines.
package auth

// Package client provides a high-level client for the Universal Ads API.
//
// It wraps the HTTP binding in pkg/api and handles the common concerns:
//   - Request signing with an EC private key (see pkg/auth)
//   - Automatic retry with exponential backoff
//   - Typed errors with helper predicates
//   - Decoding of JSON responses into Result maps
//
// # Basic Usage
//
//	pemBytes, err := os.ReadFile("private_key.pem")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	c, err := client.New(os.Getenv("UNIVERSAL_ADS_API_KEY"), pemBytes,
//	    client.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	creatives, err := c.ListCreatives(ctx, client.ListCreativesOptions{Limit: 10})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, cr := range creatives.List("data") {
//	    fmt.Println(cr.String("id"), cr.String("name"))
//	}
//
// # Error Handling
//
//	_, err := c.GetCreative(ctx, id)
//	if err != nil {
//	    switch {
//	    case client.StatusCode(err) == http.StatusNotFound:
//	        // Handle missing creative
//	    case client.IsTransportError(err):
//	        // No response was received, or retries ran out
//	    case client.IsAPIError(err):
//	        // Inspect the *APIError for Message and Data
//	    default:
//	        // Signing or request construction failed
//	    }
//	}
//
// A malformed private key makes New fail with *AuthenticationError, which
// wraps *auth.KeyFormatError.
//
// # Retries
//
// GET, PUT and DELETE calls are retried up to 3 times on status 429, 500,
// 502, 503 or 504 and on network failures. POST calls are retried only when
// the connection could not be made. Every attempt is signed again with a
// fresh timestamp. Retry-After is honored up to the maximum wait.
//
// When the retries run out the error is a *TransportError wrapping the last
// *APIError, so StatusCode still reports the status.
//
//	c, err := client.New(apiKey, pemBytes,
//	    client.WithMaxRetries(5),
//	    client.WithRetryWait(500*time.Millisecond, 10*time.Second),
//	)
//
// # Media Uploads
//
// UploadAndVerify requests an upload slot, PUTs the file to the presigned
// URL and verifies it:
//
//	result, err := c.UploadAndVerify(ctx, "banner.png", "image/png")
//
// # Thread Safety
//
// A Client is safe for concurrent use by multiple goroutines.
package client

package auth

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Authenticator produces signed authentication headers for API requests.
type Authenticator struct {
	apiKey string
	key    *ecdsa.PrivateKey
	now    func() time.Time
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the clock used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// New parses privateKeyPEM and returns an Authenticator bound to apiKey.
// Key problems are reported as *KeyFormatError.
func New(apiKey string, privateKeyPEM []byte, opts ...Option) (*Authenticator, error) {
	if apiKey == "" {
		return nil, errors.New("apiKey cannot be empty")
	}

	key, err := ParsePrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}

	a := &Authenticator{
		apiKey: apiKey,
		key:    key,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.now == nil {
		a.now = time.Now
	}

	return a, nil
}

// APIKey returns the API key identifier.
func (a *Authenticator) APIKey() string {
	return a.apiKey
}

// PublicKey returns the public half of the signing key.
func (a *Authenticator) PublicKey() *ecdsa.PublicKey {
	return &a.key.PublicKey
}

// CanonicalRequest builds the string that is signed for a request.
// The method is used as given, without case normalization.
func (a *Authenticator) CanonicalRequest(method, rawURL, timestamp, body string) string {
	return CanonicalRequest(a.apiKey, method, rawURL, timestamp, body)
}

// CanonicalRequest builds the canonical request string for apiKey.
func CanonicalRequest(apiKey, method, rawURL, timestamp, body string) string {
	path, query := splitURL(rawURL)

	var b strings.Builder
	b.Grow(len(method) + len(path) + len(query) + len(apiKey) + len(timestamp) + len(body) + 64)

	b.WriteString(method)
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteString(query)
	b.WriteByte('\n')
	b.WriteString(HeaderAPIKey)
	b.WriteByte(':')
	b.WriteString(apiKey)
	b.WriteByte('\n')
	b.WriteString(HeaderTimestamp)
	b.WriteByte(':')
	b.WriteString(timestamp)
	b.WriteByte('\n')
	b.WriteString(body)
	b.WriteByte('\n')
	b.WriteString(SignedHeaders)

	return b.String()
}

// Sign signs the SHA-256 digest of canonical and returns the base64 DER signature.
func (a *Authenticator) Sign(canonical string) (string, error) {
	digest := sha256.Sum256([]byte(canonical))

	// SignASN1 takes the digest as-is.
	sig, err := ecdsa.SignASN1(rand.Reader, a.key, digest[:])
	if err != nil {
		return "", &SigningError{Err: err}
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// AuthHeaders returns the signed header set for one request.
// rawURL must include the exact query string that will be sent, and body
// must be the exact bytes that will be sent.
func (a *Authenticator) AuthHeaders(method, rawURL, body string) (Headers, error) {
	timestamp := strconv.FormatInt(a.now().Unix(), 10)

	headers := Headers{
		HeaderAPIKey:     a.apiKey,
		HeaderTimestamp:  timestamp,
		HeaderSDKVersion: SDKVersion,
		HeaderSDKSource:  SDKSource,
	}

	canonical := CanonicalRequest(headers[HeaderAPIKey], method, rawURL, headers[HeaderTimestamp], body)
	sig, err := a.Sign(canonical)
	if err != nil {
		return nil, err
	}
	headers[HeaderSignature] = sig

	return headers, nil
}

// Verify checks a base64 signature over canonical against pub.
func Verify(pub *ecdsa.PublicKey, canonical, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}

	digest := sha256.Sum256([]byte(canonical))
	if !ecdsa.VerifyASN1(pub, digest[:], sig) {
		return ErrInvalidSignature
	}
	return nil
}

// splitURL returns the escaped path ("/" when empty) and raw query of rawURL.
func splitURL(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return splitURLFallback(rawURL)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return path, u.RawQuery
}

// splitURLFallback handles strings url.Parse rejects by splitting on the
// first '?' and dropping any scheme and authority.
func splitURLFallback(rawURL string) (string, string) {
	s, _, _ := strings.Cut(rawURL, "#")
	s, query, _ := strings.Cut(s, "?")

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
		if j := strings.IndexByte(s, '/'); j >= 0 {
			s = s[j:]
		} else {
			s = ""
		}
	}

	if s == "" {
		s = "/"
	}
	return s, query
}

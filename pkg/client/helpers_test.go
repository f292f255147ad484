package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"
)

const testAPIKey = "test-api-key"

// generateTestKey returns a fresh P-256 key and its SEC1 PEM encoding.
func generateTestKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
}

// newTestClient creates a client for baseURL with fast retries.
func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()

	_, pemBytes := generateTestKey(t)
	defaults := []Option{
		WithBaseURL(baseURL),
		WithRetryWait(time.Millisecond, 10*time.Millisecond),
	}
	c, err := New(testAPIKey, pemBytes, append(defaults, opts...)...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}

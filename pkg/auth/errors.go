package auth

import (
	"errors"
	"fmt"
)

// ErrInvalidSignature is returned by Verify when a signature does not match.
var ErrInvalidSignature = errors.New("signature verification failed")

// KeyFormatError reports a private key that cannot be used for signing:
// malformed PEM, an encrypted key, or a key that is not an ECDSA key.
type KeyFormatError struct {
	Reason string
	Err    error
}

func (e *KeyFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid private key format: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid private key format: %s", e.Reason)
}

func (e *KeyFormatError) Unwrap() error {
	return e.Err
}

// SigningError reports a failure of the signing primitive.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("sign request: %v", e.Err)
}

func (e *SigningError) Unwrap() error {
	return e.Err
}

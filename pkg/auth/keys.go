package auth

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
)

// PEM block types.
const (
	pemTypeECPrivateKey        = "EC PRIVATE KEY"
	pemTypePKCS8PrivateKey     = "PRIVATE KEY"
	pemTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	pemTypeECParameters        = "EC PARAMETERS"
)

// ParsePrivateKey decodes a PEM-encoded ECDSA private key.
//
// SEC 1 ("EC PRIVATE KEY") and PKCS #8 ("PRIVATE KEY") encodings are
// accepted. A leading "EC PARAMETERS" block, as written by
// `openssl ecparam -genkey`, is skipped. Encrypted keys are rejected.
func ParsePrivateKey(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	rest := pemBytes
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			return nil, &KeyFormatError{Reason: "no PEM private key block found"}
		}

		if block.Type == pemTypeECParameters {
			continue
		}

		if block.Type == pemTypeEncryptedPrivateKey || isLegacyEncrypted(block) {
			return nil, &KeyFormatError{Reason: "encrypted private keys are not supported"}
		}

		switch block.Type {
		case pemTypeECPrivateKey:
			key, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, &KeyFormatError{Reason: "parse SEC 1 key", Err: err}
			}
			return key, nil

		case pemTypePKCS8PrivateKey:
			parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, &KeyFormatError{Reason: "parse PKCS #8 key", Err: err}
			}
			key, ok := parsed.(*ecdsa.PrivateKey)
			if !ok {
				return nil, &KeyFormatError{Reason: "PKCS #8 key is not an ECDSA key"}
			}
			return key, nil

		default:
			return nil, &KeyFormatError{Reason: "unsupported PEM block type " + block.Type}
		}
	}
}

func isLegacyEncrypted(block *pem.Block) bool {
	return strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED")
}

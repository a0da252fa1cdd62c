package key

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
)

// ReadECPrivateKey reads the whole stream and decodes it with DecodeECPrivateKey.
func ReadECPrivateKey(r io.Reader) (*ecdsa.PrivateKey, error) {
	p, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read key: %w", ErrInvalidKey, err)
	}
	return DecodeECPrivateKey(p)
}

// DecodeECPrivateKey parses a PEM encoded P-256 private key. Both PKCS#8
// ("PRIVATE KEY") and SEC1 ("EC PRIVATE KEY") blocks are accepted.
func DecodeECPrivateKey(p []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(p)
	if block == nil {
		return nil, fmt.Errorf("%w: failed to decode PEM block", ErrInvalidKey)
	}

	var privateKey *ecdsa.PrivateKey
	switch block.Type {
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse SEC1 private key: %w", ErrInvalidKey, err)
		}
		privateKey = k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse PKCS#8 private key: %w", ErrInvalidKey, err)
		}
		ecKey, ok := k.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: expected an EC private key, got %T", ErrInvalidKey, k)
		}
		privateKey = ecKey
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block type %q", ErrInvalidKey, block.Type)
	}

	if privateKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: expected curve P-256, got %s", ErrInvalidKey, privateKey.Curve.Params().Name)
	}
	return privateKey, nil
}

package key

import "errors"

var (
	// ErrInvalidKey is returned for key material that is not a P-256 private key.
	ErrInvalidKey = errors.New("invalid signing key")
	// ErrEncoding is returned when the header or claims cannot be serialized.
	ErrEncoding = errors.New("failed to encode token")
	// ErrSigning is returned when the signature primitive fails.
	ErrSigning = errors.New("failed to sign token")
)

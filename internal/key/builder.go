package key

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Build returns a signed token "b64(header).b64(claims).b64(signature)" for
// identity, issued at issuedAt. It does not mutate priv and is safe to call
// concurrently with the same key.
func Build(priv *ecdsa.PrivateKey, alg Algorithm, identity Identity, issuedAt time.Time) (string, error) {
	params, err := alg.params()
	if err != nil {
		return "", err
	}
	if priv == nil {
		return "", fmt.Errorf("%w: private key is nil", ErrInvalidKey)
	}
	if priv.Curve != params.curve {
		return "", fmt.Errorf("%w: %s requires curve %s", ErrInvalidKey, alg, params.curve.Params().Name)
	}

	headerJSON, err := json.Marshal(header{Alg: alg, Kid: identity.KeyID})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal header: %w", ErrEncoding, err)
	}
	claimsJSON, err := json.Marshal(claims{Iss: identity.IssuerID, Iat: issuedAt.Unix()})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal claims: %w", ErrEncoding, err)
	}

	signingInput := encodeSegment(headerJSON) + "." + encodeSegment(claimsJSON)

	signature, err := params.method.Sign(signingInput, priv)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidKey) || errors.Is(err, jwt.ErrInvalidKeyType) {
			return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return signingInput + "." + encodeSegment(signature), nil
}

func encodeSegment(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

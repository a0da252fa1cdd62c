package key

import (
	"crypto/elliptic"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm is the "alg" header of a token.
type Algorithm string

// ES256 is ECDSA over P-256 with SHA-256. It is the only algorithm push
// providers accept for token authentication.
const ES256 Algorithm = "ES256"

type algorithmParams struct {
	method jwt.SigningMethod
	curve  elliptic.Curve
}

var algorithms = map[Algorithm]algorithmParams{
	ES256: {method: jwt.SigningMethodES256, curve: elliptic.P256()},
}

func (a Algorithm) String() string {
	return string(a)
}

func (a Algorithm) params() (algorithmParams, error) {
	p, ok := algorithms[a]
	if !ok {
		return algorithmParams{}, fmt.Errorf("%w: unsupported algorithm %q", ErrSigning, string(a))
	}
	return p, nil
}

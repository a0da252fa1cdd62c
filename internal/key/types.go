package key

import (
	"time"
)

// SignedToken is an immutable snapshot of a built token.
type SignedToken struct {
	Token string
	// IssuedAt is the "iat" claim, in unix seconds.
	IssuedAt int64
}

// IssuedTime returns IssuedAt as a time.Time.
func (t SignedToken) IssuedTime() time.Time {
	return time.Unix(t.IssuedAt, 0).UTC()
}

// Identity names the provider key and the team that owns it.
type Identity struct {
	KeyID    string
	IssuerID string
}

// TokenSource hands out a valid bearer token for the duration of fn.
type TokenSource interface {
	Access(fn func(token string)) error
}

type header struct {
	Alg Algorithm `json:"alg"`
	Kid string    `json:"kid"`
}

type claims struct {
	Iss string `json:"iss"`
	Iat int64  `json:"iat"`
}

package key

import (
	"crypto/elliptic"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/zarvd/push-token-signer/internal/key/keytest"
)

var testIdentity = Identity{KeyID: "89AFRD1X22", IssuerID: "ASDFQWERTY"}

func TestBuild(t *testing.T) {
	t.Parallel()

	_, privateKey := keytest.PKCS8(t, elliptic.P256())
	issuedAt := time.Unix(1700000000, 0)

	t.Run("produces header, claims and a valid signature", func(t *testing.T) {
		token, err := Build(privateKey, ES256, testIdentity, issuedAt)
		require.NoError(t, err)

		segments := strings.Split(token, ".")
		require.Len(t, segments, 3)
		for _, s := range segments {
			require.NotEmpty(t, s)
		}

		headerJSON, err := base64.StdEncoding.DecodeString(segments[0])
		require.NoError(t, err)
		require.Equal(t, `{"alg":"ES256","kid":"89AFRD1X22"}`, string(headerJSON))

		claimsJSON, err := base64.StdEncoding.DecodeString(segments[1])
		require.NoError(t, err)
		require.Equal(t, `{"iss":"ASDFQWERTY","iat":1700000000}`, string(claimsJSON))

		signature, err := base64.StdEncoding.DecodeString(segments[2])
		require.NoError(t, err)
		require.Len(t, signature, 64)

		signingInput := segments[0] + "." + segments[1]
		require.NoError(t, jwt.SigningMethodES256.Verify(signingInput, signature, &privateKey.PublicKey))
	})

	t.Run("signing input is reproducible", func(t *testing.T) {
		first, err := Build(privateKey, ES256, testIdentity, issuedAt)
		require.NoError(t, err)
		second, err := Build(privateKey, ES256, testIdentity, issuedAt)
		require.NoError(t, err)

		firstInput := first[:strings.LastIndex(first, ".")]
		secondInput := second[:strings.LastIndex(second, ".")]
		require.Equal(t, firstInput, secondInput)
	})

	t.Run("issued at is truncated to seconds in UTC", func(t *testing.T) {
		local := time.Unix(1700000000, 999_000_000).In(time.FixedZone("UTC+9", 9*60*60))
		token, err := Build(privateKey, ES256, testIdentity, local)
		require.NoError(t, err)

		claimsJSON, err := base64.StdEncoding.DecodeString(strings.Split(token, ".")[1])
		require.NoError(t, err)
		require.Contains(t, string(claimsJSON), `"iat":1700000000`)
	})

	t.Run("nil key", func(t *testing.T) {
		_, err := Build(nil, ES256, testIdentity, issuedAt)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("wrong curve", func(t *testing.T) {
		_, p384 := keytest.PKCS8(t, elliptic.P384())
		_, err := Build(p384, ES256, testIdentity, issuedAt)
		require.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		_, err := Build(privateKey, Algorithm("HS256"), testIdentity, issuedAt)
		require.ErrorIs(t, err, ErrSigning)
	})
}

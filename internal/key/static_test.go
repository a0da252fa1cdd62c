package key

import (
	"crypto/elliptic"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zarvd/push-token-signer/internal/key/keytest"
)

func TestDecodeECPrivateKey(t *testing.T) {
	t.Parallel()

	t.Run("PKCS#8 P-256", func(t *testing.T) {
		p, want := keytest.PKCS8(t, elliptic.P256())

		got, err := DecodeECPrivateKey(p)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	t.Run("SEC1 P-256", func(t *testing.T) {
		p, want := keytest.SEC1(t, elliptic.P256())

		got, err := DecodeECPrivateKey(p)
		require.NoError(t, err)
		require.True(t, want.Equal(got))
	})

	p384PKCS8, _ := keytest.PKCS8(t, elliptic.P384())
	p384SEC1, _ := keytest.SEC1(t, elliptic.P384())
	p256, _ := keytest.PKCS8(t, elliptic.P256())
	corrupted := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("garbage")})
	wrongType := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("cert")})

	tests := map[string][]byte{
		"empty":           nil,
		"not PEM":         []byte("not a key"),
		"P-384 PKCS#8":    p384PKCS8,
		"P-384 SEC1":      p384SEC1,
		"Ed25519 PKCS#8":  keytest.Ed25519(t),
		"corrupted body":  corrupted,
		"unexpected type": wrongType,
		"truncated P-256": p256[:len(p256)/2],
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := DecodeECPrivateKey(input)
			require.ErrorIs(t, err, ErrInvalidKey)
			require.Nil(t, got)
		})
	}
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "safeline", time.Hour)
	token, exp, err := tm.Generate("user-1", "sess-1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-1", claims.ID)
}

func TestTokenRejectsWrongSecretIssuerAndExpiry(t *testing.T) {
	tm := NewTokenManager("secret", "safeline", time.Hour)
	token, _, err := tm.Generate("user-1", "sess-1")
	require.NoError(t, err)

	_, err = NewTokenManager("other", "safeline", time.Hour).Parse(token)
	require.Error(t, err)

	_, err = NewTokenManager("secret", "someone-else", time.Hour).Parse(token)
	require.Error(t, err)

	later := NewTokenManager("secret", "safeline", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(token)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsUnsignedAlgorithms(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "safeline",
		Subject:   "user-1",
		ID:        "sess-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", "safeline", time.Hour).Parse(token)
	require.Error(t, err)
}

package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", 30*24*time.Hour)

	token, err := issuer.GenerateJWT(42, "a@x.com")
	require.NoError(t, err)

	claims, err := issuer.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t,
		claims.IssuedAt.Time.Add(30*24*time.Hour),
		claims.ExpiresAt.Time,
		time.Second,
	)
}

func TestParseJWTRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenIssuer("other", time.Hour).GenerateJWT(1, "a@x.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).ParseJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTRejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := issuer.GenerateJWT(1, "a@x.com")
	require.NoError(t, err)

	_, err = NewTokenIssuer("secret", time.Hour).ParseJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseJWTRejectsMalformedAndNone(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	_, err := issuer.ParseJWT("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 1})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.ParseJWT(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseJWT("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestExtractToken(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"Bearer abc": "abc",
		"bearer abc": "abc",
		"Basic abc":  "",
		"Bearer":     "",
		"Bearer a b": "",
	}
	for header, want := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, ExtractToken(r), header)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", hash)
	assert.True(t, CheckPassword("secret1", hash))
	assert.False(t, CheckPassword("secret2", hash))
}

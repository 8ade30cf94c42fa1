package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
}

func TestTokenRoundTrip(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	tok, exp, err := iss.MakeToken("user-1", "ADMIN")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := iss.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", c.UserID)
	assert.Equal(t, "ADMIN", c.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	tok, _, err := NewIssuer("secret", time.Hour).MakeToken("user-1", "USER")
	require.NoError(t, err)
	_, err = NewIssuer("other", time.Hour).ParseToken(tok)
	assert.Error(t, err)
}

func TestTokenExpired(t *testing.T) {
	iss := NewIssuer("secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.MakeToken("user-1", "USER")
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Minute).ParseToken(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	c := Claims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewIssuer("secret", time.Hour).ParseToken(tok)
	assert.Error(t, err)
}

func TestOTP(t *testing.T) {
	code, hash, err := GenerateOTP()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
	assert.True(t, CheckOTP(hash, code))
	assert.False(t, CheckOTP(hash, "000000x"))
	assert.False(t, CheckOTP("", code))
	assert.False(t, CheckOTP(hash, ""))
}

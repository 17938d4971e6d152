package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, "ADMIN", 5)
	require.NoError(t, err)

	claims, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "ADMIN", claims.Role)
}

func TestParseAccessTokenRejects(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 1, "CUSTOMER", 5)
	require.NoError(t, err)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseAccessToken("s3cret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := NewAccessToken("s3cret", 1, "CUSTOMER", -1)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "ADMIN", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), rt.Exp, time.Minute)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("Passw0rd", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "Passw0rd"))
	assert.False(t, VerifyPassword(hash, "passw0rd"))

	assert.True(t, StrongPassword("Passw0rd"))
	assert.False(t, StrongPassword("Pa0"))
	assert.False(t, StrongPassword("password1"))
	assert.False(t, StrongPassword("PASSWORD1"))
	assert.False(t, StrongPassword("Password"))
	assert.True(t, StrongPassword("Aa1"+strings.Repeat("x", MaxPasswordBytes-3)))
	assert.False(t, StrongPassword("Aa1"+strings.Repeat("x", MaxPasswordBytes-2)))
}

func TestDates(t *testing.T) {
	_, err := ParseISODate("2024-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)

	now := time.Date(2030, 5, 10, 15, 0, 0, 0, time.UTC)
	today, err := ParseISODate("2030-05-10")
	require.NoError(t, err)
	yesterday, err := ParseISODate("2030-05-09")
	require.NoError(t, err)
	assert.False(t, IsPastDate(today, now))
	assert.True(t, IsPastDate(yesterday, now))
}

func TestGenerateTimeWindows(t *testing.T) {
	w := GenerateTimeWindows()
	require.Len(t, w, 16)
	assert.Equal(t, "09:00", w[0].StartTime)
	assert.Equal(t, "09:30", w[0].EndTime)
	assert.Equal(t, "16:30", w[15].StartTime)
	assert.Equal(t, "17:00", w[15].EndTime)
}

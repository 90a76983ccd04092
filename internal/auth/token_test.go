package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager("test-secret-key-with-enough-length", 7*24*time.Hour)
}

func TestTokenManager_IssueAndVerify(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.Issue("account-123", Claims{Email: "admin@escola.org", Role: "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tm.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "account-123", claims.Subject)
	assert.Equal(t, "admin@escola.org", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Verify_MinimalClaims(t *testing.T) {
	tm := newTestTokenManager()

	// Student tokens carry only the subject
	tokenString, err := tm.Issue("aluno-1", Claims{})
	require.NoError(t, err)

	claims, err := tm.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "aluno-1", claims.Subject)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
}

func TestTokenManager_Verify_Expired(t *testing.T) {
	tm := newTestTokenManager()

	tokenString, err := tm.IssueWithTTL("account-123", Claims{}, -time.Minute)
	require.NoError(t, err)

	claims, err := tm.Verify(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Verify_WrongSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager("a-completely-different-secret-key", time.Hour)

	tokenString, err := other.Issue("account-123", Claims{})
	require.NoError(t, err)

	claims, err := tm.Verify(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_Verify_Malformed(t *testing.T) {
	tm := newTestTokenManager()

	for _, tokenString := range []string{"", "not-a-token", "a.b.c"} {
		claims, err := tm.Verify(tokenString)
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestTokenManager_Verify_RejectsUnsignedAlgorithm(t *testing.T) {
	tm := newTestTokenManager()

	// alg=none must never verify, whatever the claims say
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "account-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := tm.Verify(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenManager_Verify_MissingSubject(t *testing.T) {
	tm := newTestTokenManager()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := token.SignedString([]byte("test-secret-key-with-enough-length"))
	require.NoError(t, err)

	claims, err := tm.Verify(tokenString)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

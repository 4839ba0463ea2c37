package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTokenRoundTrip(t *testing.T) {
	token, err := CreateRegisterToken("alice@example.com", "$2a$10$fakehash")
	require.NoError(t, err)

	email, passwdHash, err := ParseRegisterToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)
	assert.Equal(t, "$2a$10$fakehash", passwdHash)
}

func TestLoginTokenRoundTrip(t *testing.T) {
	token, err := CreateLoginToken("bob@example.com", true)
	require.NoError(t, err)

	email, remember, err := ParseLoginToken(token)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", email)
	assert.True(t, remember)
}

func TestExpiredTokenRejected(t *testing.T) {
	// 签发一个已过期的注册令牌（签发于 2 小时前，有效期 1 小时）
	issuedAt := time.Now().Add(-2 * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registerClaims{
		Email:      "alice@example.com",
		PasswdHash: "$2a$10$fakehash",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectRegister,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(TokenMaxAge)),
		},
	})
	tokenString, err := token.SignedString(tokenSecret())
	require.NoError(t, err)

	_, _, err = ParseRegisterToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTamperedTokenRejected(t *testing.T) {
	token, err := CreateRegisterToken("alice@example.com", "$2a$10$fakehash")
	require.NoError(t, err)

	// 篡改末尾的签名字节
	tampered := token[:len(token)-2] + "xx"
	_, _, err = ParseRegisterToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = ParseRegisterToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSignatureRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, loginClaims{
		Email: "alice@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectLogin,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenMaxAge)),
		},
	})
	tokenString, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, _, err = ParseLoginToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenKindNotInterchangeable(t *testing.T) {
	// 登录令牌不能当注册令牌用，反之亦然
	loginToken, err := CreateLoginToken("alice@example.com", false)
	require.NoError(t, err)
	_, _, err = ParseRegisterToken(loginToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	registerToken, err := CreateRegisterToken("alice@example.com", "$2a$10$fakehash")
	require.NoError(t, err)
	_, _, err = ParseLoginToken(registerToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, expiresAt, err := CreateSessionToken(42, "alice@example.com", false)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(SessionMaxAge), expiresAt, time.Minute)

	userID, err := ParseSessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), userID)

	// remember 延长会话有效期
	_, rememberExpires, err := CreateSessionToken(42, "alice@example.com", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(SessionMaxAgeRemember), rememberExpires, time.Minute)
}

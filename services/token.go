package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"htalk-server/config"
)

// 确认令牌最长有效期
const TokenMaxAge = 3600 * time.Second

// ErrInvalidToken 令牌无效
// 篡改、格式错误、过期均归并为该错误，不向调用方区分
var ErrInvalidToken = errors.New("无效的令牌")

const (
	subjectRegister = "register"
	subjectLogin    = "login"
)

type registerClaims struct {
	Email      string `json:"email"`
	PasswdHash string `json:"passwd_hash"`
	jwt.RegisteredClaims
}

type loginClaims struct {
	Email    string `json:"email"`
	Remember bool   `json:"remember"`
	jwt.RegisteredClaims
}

func tokenSecret() []byte {
	return []byte(config.GetConfig().JWTSecret)
}

// CreateRegisterToken 签发注册确认令牌
// 此时用户行尚未创建，令牌携带建立用户所需的全部信息
func CreateRegisterToken(email, passwdHash string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, registerClaims{
		Email:      email,
		PasswdHash: passwdHash,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectRegister,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenMaxAge)),
		},
	})
	return token.SignedString(tokenSecret())
}

// ParseRegisterToken 解析注册确认令牌，返回 email 和密码哈希
func ParseRegisterToken(tokenString string) (string, string, error) {
	claims := &registerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tokenSecret(), nil
	})
	if err != nil || !token.Valid || claims.Subject != subjectRegister {
		return "", "", ErrInvalidToken
	}
	return claims.Email, claims.PasswdHash, nil
}

// CreateLoginToken 签发免密登录确认令牌
func CreateLoginToken(email string, remember bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, loginClaims{
		Email:    email,
		Remember: remember,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectLogin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenMaxAge)),
		},
	})
	return token.SignedString(tokenSecret())
}

// ParseLoginToken 解析免密登录确认令牌，返回 email 和记住登录标记
func ParseLoginToken(tokenString string) (string, bool, error) {
	claims := &loginClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tokenSecret(), nil
	})
	if err != nil || !token.Valid || claims.Subject != subjectLogin {
		return "", false, ErrInvalidToken
	}
	return claims.Email, claims.Remember, nil
}

// 会话令牌有效期
const (
	SessionMaxAge         = 24 * time.Hour
	SessionMaxAgeRemember = 30 * 24 * time.Hour
)

// CreateSessionToken 签发会话令牌（Bearer）
func CreateSessionToken(userID uint, email string, remember bool) (string, time.Time, error) {
	maxAge := SessionMaxAge
	if remember {
		maxAge = SessionMaxAgeRemember
	}

	expiresAt := time.Now().Add(maxAge)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"exp":     expiresAt.Unix(),
	})

	tokenString, err := token.SignedString(tokenSecret())
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseSessionToken 解析会话令牌，返回用户ID
func ParseSessionToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return tokenSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}

package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role 签发进 token 的角色声明，closed set
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims 自定义 JWT claims
type Claims struct {
	UserID   string `json:"userId"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken 签发带角色声明的 token
func GenerateToken(secret string, userID, email, username string, role Role, expireMinutes int) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Email:    email,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expireMinutes) * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken 验证签名与过期时间，返回 claims
func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != RoleAdmin && claims.Role != RoleStudent {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims 用户令牌声明。令牌由账号体系签发，本服务只负责校验，
// 角色随令牌下发以便路由层做角色守卫。
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignUserToken 按同一密钥签发用户令牌（演示数据与测试使用）
func SignUserToken(secretKey string, userID uint, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserJWTClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secretKey))
}

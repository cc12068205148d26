package middleware

import (
	"net/http"
	"strings"

	"github.com/srseducares/educares-backend/service"
	"github.com/srseducares/educares-backend/utils"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// Authenticator 提取 Bearer token -> 校验签名与角色 -> 注入调用者身份
type Authenticator struct {
	auth service.AuthService
}

func NewAuthenticator(auth service.AuthService) *Authenticator {
	return &Authenticator{auth: auth}
}

// RequireAdmin 仅放行 admin 角色的有效 token
func (a *Authenticator) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.verify(c)
		if !ok {
			return
		}
		if claims.Role != utils.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "admin access required"})
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireStudent 仅放行 student 角色的有效 token；学生档案在
// 每个操作里再按仓库复核，不做缓存
func (a *Authenticator) RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := a.verify(c)
		if !ok {
			return
		}
		if claims.Role != utils.RoleStudent {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "student access required"})
			c.Abort()
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func (a *Authenticator) verify(c *gin.Context) (*utils.Claims, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		a.unauthorized(c, "no authorization header provided")
		return nil, false
	}
	// 只接受 Bearer scheme，裸 token 一律拒绝
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		a.unauthorized(c, "authorization header must use the Bearer scheme")
		return nil, false
	}
	claims, err := a.auth.VerifyToken(token)
	if err != nil {
		a.unauthorized(c, "invalid token")
		return nil, false
	}
	return claims, true
}

func (a *Authenticator) unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
	c.Abort()
}

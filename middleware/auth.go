package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"htalk-server/database"
	"htalk-server/models"
	"htalk-server/services"
)

const principalKey = "principal"

// resolvePrincipal 从 Authorization 头解析当前主体
// 无令牌、令牌无效、用户不存在、角色缺少 USABLE 位时返回匿名主体
func resolvePrincipal(c *gin.Context) models.Principal {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return models.Anonymous()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		return models.Anonymous()
	}

	userID, err := services.ParseSessionToken(parts[1])
	if err != nil {
		return models.Anonymous()
	}

	var user models.User
	if err := database.DB.Preload("Role").First(&user, userID).Error; err != nil {
		return models.Anonymous()
	}

	// 账号被封禁（角色无 USABLE 位）时会话立即失效
	if !user.Role.HasPermission(models.PermUsable) {
		return models.Anonymous()
	}

	return models.Authenticated(&user)
}

// OptionalAuth 解析当前主体，匿名也放行
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(principalKey, resolvePrincipal(c))
		c.Next()
	}
}

// AuthRequired 认证中间件，匿名请求拒绝（401）
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := resolvePrincipal(c)
		if !principal.IsAuthenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "未登录或会话已失效",
			})
			c.Abort()
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// PermissionRequired 权限位检查中间件（403）
// 与 AuthRequired 正交：匿名主体权限为 0，要求任意权限位都会被拒绝
func PermissionRequired(perm uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if !principal.HasPermission(perm) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "没有执行该操作的权限",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal 取出当前请求主体，未经过认证中间件时视为匿名
func GetPrincipal(c *gin.Context) models.Principal {
	if v, exists := c.Get(principalKey); exists {
		if principal, ok := v.(models.Principal); ok {
			return principal
		}
	}
	return models.Anonymous()
}

// GetCurrentUser 取出当前登录用户，匿名时返回 nil
func GetCurrentUser(c *gin.Context) *models.User {
	return GetPrincipal(c).User
}

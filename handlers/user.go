package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"htalk-server/database"
	"htalk-server/models"
)

type SetRoleRequest struct {
	RoleName string `json:"role_name" binding:"required"`
}

// ListUsers 用户列表（管理用）
func ListUsers(c *gin.Context) {
	var users []models.User
	if err := database.DB.Preload("Role").Order("id ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取用户列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   len(users),
	})
}

// setUserRole 将用户角色改为指定预设角色
func setUserRole(c *gin.Context, roleName string) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	var role models.Role
	if err := database.DB.Where("name = ?", roleName).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "角色不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询角色失败",
		})
		return
	}

	target.RoleID = role.ID
	target.Role = role
	if err := database.DB.Save(target).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "修改角色失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "角色修改成功",
		"data":    target,
	})
}

// SetUserRole 任意角色调整（需要 SYSTEM 权限）
func SetUserRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}
	setUserRole(c, req.RoleName)
}

// BlockUser 封禁：切换到 block 角色，账号随即无法登录
func BlockUser(c *gin.Context) {
	setUserRole(c, "block")
}

// UnblockUser 解封：恢复为 default 角色
func UnblockUser(c *gin.Context) {
	setUserRole(c, "default")
}

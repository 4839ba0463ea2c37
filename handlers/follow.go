package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"htalk-server/database"
	"htalk-server/middleware"
	"htalk-server/models"
)

// targetUser 解析路径中的用户ID并加载用户
func targetUser(c *gin.Context) (*models.User, bool) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的用户ID",
		})
		return nil, false
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "用户不存在",
			})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询用户失败",
		})
		return nil, false
	}
	return &user, true
}

// FollowUser 关注用户
func FollowUser(c *gin.Context) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	user := middleware.GetCurrentUser(c)
	if user.ID == target.ID {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "不能关注自己",
		})
		return
	}

	follow := models.Follow{
		FollowerID: user.ID,
		FollowedID: target.ID,
	}
	if err := database.DB.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "已经关注过该用户",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "关注失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "关注成功",
		"data":    follow,
	})
}

// UnfollowUser 取消关注，边不存在时也视为成功
func UnfollowUser(c *gin.Context) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	user := middleware.GetCurrentUser(c)
	if err := database.DB.
		Where("follower_id = ? AND followed_id = ?", user.ID, target.ID).
		Delete(&models.Follow{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "取消关注失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "已取消关注",
	})
}

// ListFollowers 用户的粉丝列表
func ListFollowers(c *gin.Context) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	var follows []models.Follow
	if err := database.DB.Preload("Follower").
		Where("followed_id = ?", target.ID).
		Order("created_at DESC").
		Find(&follows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取粉丝列表失败",
		})
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, follow := range follows {
		users = append(users, follow.Follower)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   len(users),
	})
}

// ListFollowing 用户的关注列表
func ListFollowing(c *gin.Context) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	var follows []models.Follow
	if err := database.DB.Preload("Followed").
		Where("follower_id = ?", target.ID).
		Order("created_at DESC").
		Find(&follows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取关注列表失败",
		})
		return
	}

	users := make([]models.User, 0, len(follows))
	for _, follow := range follows {
		users = append(users, follow.Followed)
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    users,
		"total":   len(users),
	})
}

// FollowStats 关注与粉丝数量，均为即时统计
func FollowStats(c *gin.Context) {
	target, ok := targetUser(c)
	if !ok {
		return
	}

	var followers, following int64
	database.DB.Model(&models.Follow{}).Where("followed_id = ?", target.ID).Count(&followers)
	database.DB.Model(&models.Follow{}).Where("follower_id = ?", target.ID).Count(&following)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":   target.ID,
			"followers": followers,
			"following": following,
		},
	})
}

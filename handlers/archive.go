package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"htalk-server/database"
	"htalk-server/models"
)

type CreateArchiveRequest struct {
	Name     string `json:"name" binding:"required,max=32"`
	Describe string `json:"describe" binding:"required,max=100"`
}

// ArchiveView 归档及其主题帖数量
type ArchiveView struct {
	models.Archive
	CommentTotal int64 `json:"comment_total"`
}

// CreateArchive 创建归档
func CreateArchive(c *gin.Context) {
	var req CreateArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	archive := models.Archive{
		Name:     req.Name,
		Describe: req.Describe,
	}
	if err := database.DB.Create(&archive).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "该归档名称已存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "创建归档失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "归档创建成功",
		"data":    archive,
	})
}

// ListArchives 归档列表，名称升序
// 每个归档只统计其中的主题帖数量
func ListArchives(c *gin.Context) {
	page := pageQuery(c)

	var total int64
	if err := database.DB.Model(&models.Archive{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取归档列表失败",
		})
		return
	}

	var archives []models.Archive
	if err := database.DB.Order("name ASC").
		Offset((page - 1) * archivesPerPage).Limit(archivesPerPage).
		Find(&archives).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取归档列表失败",
		})
		return
	}

	views := make([]ArchiveView, 0, len(archives))
	for _, archive := range archives {
		var count int64
		database.DB.Model(&models.Comment{}).
			Joins("JOIN archive_comments ON archive_comments.comment_id = comments.id").
			Where("archive_comments.archive_id = ?", archive.ID).
			Where("comments.title IS NOT NULL AND comments.father_id IS NULL").
			Count(&count)
		views = append(views, ArchiveView{Archive: archive, CommentTotal: count})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     views,
		"total":    total,
		"page":     page,
		"per_page": archivesPerPage,
	})
}

// ListArchiveComments 归档内的主题帖列表
// 排序与主题帖总列表一致：创建时间降序，标题降序
func ListArchiveComments(c *gin.Context) {
	archiveID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的归档ID",
		})
		return
	}

	var archive models.Archive
	if err := database.DB.First(&archive, archiveID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "归档不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询归档失败",
		})
		return
	}

	page := pageQuery(c)

	query := database.DB.Model(&models.Comment{}).
		Joins("JOIN archive_comments ON archive_comments.comment_id = comments.id").
		Where("archive_comments.archive_id = ?", archive.ID).
		Where("comments.title IS NOT NULL AND comments.father_id IS NULL")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取归档评论失败",
		})
		return
	}

	var comments []models.Comment
	if err := query.Preload("Author").
		Order("comments.created_at DESC, comments.title DESC").
		Offset((page - 1) * commentsPerPage).Limit(commentsPerPage).
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取归档评论失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     comments,
		"archive":  archive,
		"total":    total,
		"page":     page,
		"per_page": commentsPerPage,
	})
}

// DeleteArchive 删除归档
// 只解除评论与归档的关联，不删除评论本身
func DeleteArchive(c *gin.Context) {
	archiveID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的归档ID",
		})
		return
	}

	var archive models.Archive
	if err := database.DB.First(&archive, archiveID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "归档不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询归档失败",
		})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&archive).Association("Comments").Clear(); err != nil {
			return err
		}
		return tx.Delete(&archive).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "删除归档失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "归档删除成功",
	})
}

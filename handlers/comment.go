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

const (
	commentsPerPage = 20
	archivesPerPage = 8
)

// pageQuery 解析 page 查询参数，从 1 开始
func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page
}

type CreateCommentRequest struct {
	Title      *string `json:"title"`
	Content    string  `json:"content" binding:"required"`
	FatherID   *uint   `json:"father_id"`
	ArchiveIDs []uint  `json:"archive_ids"`
}

// CreateComment 发表主题帖或回复
// 主题帖有标题无父评论，回复无标题有父评论，两者不可混用
func CreateComment(c *gin.Context) {
	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "请求参数错误",
			"error":   err.Error(),
		})
		return
	}

	hasTitle := req.Title != nil && *req.Title != ""
	if req.FatherID == nil && !hasTitle {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "主题帖必须填写标题",
		})
		return
	}
	if req.FatherID != nil && hasTitle {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "回复不能带标题",
		})
		return
	}

	user := middleware.GetCurrentUser(c)

	comment := models.Comment{
		Content:  req.Content,
		AuthorID: user.ID,
		FatherID: req.FatherID,
	}
	if hasTitle {
		comment.Title = req.Title
	}

	// 校验与写入放在同一事务里，归档不存在时整体回滚
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if req.FatherID != nil {
			var father models.Comment
			if err := tx.First(&father, *req.FatherID).Error; err != nil {
				return err
			}
		}

		var archives []models.Archive
		if len(req.ArchiveIDs) > 0 {
			if err := tx.Find(&archives, req.ArchiveIDs).Error; err != nil {
				return err
			}
			if len(archives) != len(req.ArchiveIDs) {
				return gorm.ErrRecordNotFound
			}
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		if len(archives) > 0 {
			if err := tx.Model(&comment).Association("Archives").Append(archives); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "父评论或归档不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "发表评论失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "发表成功",
		"data":    comment,
	})
}

// ListComments 主题帖列表
// 只列出主题帖（有标题且无父评论），创建时间降序，标题降序打破平局
func ListComments(c *gin.Context) {
	page := pageQuery(c)

	query := database.DB.Model(&models.Comment{}).
		Where("title IS NOT NULL AND father_id IS NULL")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取评论列表失败",
		})
		return
	}

	var comments []models.Comment
	if err := query.Preload("Author").Preload("Author.Role").
		Order("created_at DESC, title DESC").
		Offset((page - 1) * commentsPerPage).Limit(commentsPerPage).
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取评论列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"data":     comments,
		"total":    total,
		"page":     page,
		"per_page": commentsPerPage,
	})
}

// GetComment 读取单条评论及其直接回复
func GetComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的评论ID",
		})
		return
	}

	var comment models.Comment
	err = database.DB.Preload("Author").
		Preload("Sons", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Sons.Author").
		Preload("Archives").
		First(&comment, commentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "评论不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询评论失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    comment,
	})
}

// DeleteComment 删除评论及其直接回复
func DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的评论ID",
		})
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "评论不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询评论失败",
		})
		return
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&comment).Association("Archives").Clear(); err != nil {
			return err
		}
		if err := tx.Where("father_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "删除评论失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "评论删除成功",
	})
}

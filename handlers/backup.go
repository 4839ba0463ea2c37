package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"htalk-server/middleware"
	"htalk-server/models"
	"htalk-server/services"
)

// BackupHandler 数据库备份管理接口（SYSTEM 权限）
type BackupHandler struct {
	db            *gorm.DB
	backupService *services.BackupService
}

func NewBackupHandler(db *gorm.DB, backupService *services.BackupService) *BackupHandler {
	return &BackupHandler{db: db, backupService: backupService}
}

// RunBackup 手动触发一次备份
func (h *BackupHandler) RunBackup(c *gin.Context) {
	user := middleware.GetCurrentUser(c)

	record, err := h.backupService.Run(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "备份执行失败",
			"error":   err.Error(),
			"data":    record,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "备份完成",
		"data":    record,
	})
}

// ListBackups 备份历史
func (h *BackupHandler) ListBackups(c *gin.Context) {
	var records []models.BackupRecord
	if err := h.db.Order("started_at DESC").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "获取备份历史失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
		"total":   len(records),
	})
}

// DownloadBackup 获取备份文件的临时下载地址
func (h *BackupHandler) DownloadBackup(c *gin.Context) {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的备份ID",
		})
		return
	}

	var record models.BackupRecord
	if err := h.db.First(&record, recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "备份不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询备份失败",
		})
		return
	}

	url, err := h.backupService.DownloadURL(c.Request.Context(), &record)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"download_url": url,
		},
	})
}

// DeleteBackup 删除备份
func (h *BackupHandler) DeleteBackup(c *gin.Context) {
	recordID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "无效的备份ID",
		})
		return
	}

	if err := h.backupService.Delete(c.Request.Context(), uint(recordID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "备份不存在",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "删除备份失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "备份删除成功",
	})
}

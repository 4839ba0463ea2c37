package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"htalk-server/services"
)

// AuditHandler 操作审计日志查询接口（SYSTEM 权限）
type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// RecentEvents 最近的操作事件
func (h *AuditHandler) RecentEvents(c *gin.Context) {
	if !h.audit.Enabled() {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "审计日志未启用",
			"data":    []services.OpEvent{},
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		limit = 100
	}

	events, err := h.audit.RecentEvents(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "查询审计日志失败",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    events,
		"total":   len(events),
	})
}

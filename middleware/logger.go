package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger 自定义日志中间件
// 请求结束后追加当前登录用户，便于排查操作记录
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		clientIP := c.ClientIP()
		method := c.Request.Method
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path

		email := "-"
		if user := GetCurrentUser(c); user != nil {
			email = user.Email
		}

		log.Printf("[%s] %s %s %d %v %s",
			method,
			clientIP,
			path,
			statusCode,
			latency,
			email,
		)
	}
}

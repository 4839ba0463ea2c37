package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"htalk-server/config"
	"htalk-server/database"
	"htalk-server/handlers"
	"htalk-server/middleware"
	"htalk-server/models"
	"htalk-server/services"
)

func main() {
	// 初始化数据库
	database.InitDB()
	database.InitClickHouse()

	// 审计日志（ClickHouse 未启用时静默丢弃）
	auditService := services.NewAuditService(database.CHConn)
	defer auditService.Stop()
	defer database.CloseClickHouse()

	// 邮件服务
	mailCfg := config.GetMailConfig()
	if err := mailCfg.Validate(); err != nil {
		log.Fatal("邮件配置错误:", err)
	}
	mailer := services.NewMailer(mailCfg)

	// 备份存储
	storageCfg := config.LoadStorageConfig()
	if err := storageCfg.Validate(); err != nil {
		log.Fatal("备份存储配置错误:", err)
	}
	var s3Service *services.S3Service
	if storageCfg.IsS3Enabled() {
		var err error
		s3Service, err = services.NewS3Service(storageCfg)
		if err != nil {
			log.Fatal("创建S3服务失败:", err)
		}
	}
	backupService := services.NewBackupService(database.DB, s3Service, storageCfg)

	// 初始化处理器
	authHandler := handlers.NewAuthHandler(mailer, auditService)
	backupHandler := handlers.NewBackupHandler(database.DB, backupService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// 创建 Gin 路由
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())

	// CORS 配置
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true, // 允许所有来源（仅开发环境）
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// 公开路由：注册与登录入口，限制提交频率
	public := r.Group("/api/auth")
	public.Use(middleware.RateLimit(10))
	{
		public.POST("/register", authHandler.Register)
		public.GET("/confirm/register", authHandler.ConfirmRegister)
		public.POST("/login/passwd", authHandler.PasswdLogin)
		public.POST("/login/email", authHandler.EmailLogin)
		public.GET("/confirm/login", authHandler.ConfirmLogin)
	}

	// 当前用户
	account := r.Group("/api/auth")
	account.Use(middleware.AuthRequired())
	{
		account.GET("/me", authHandler.Me)
		account.POST("/set/passwd", authHandler.ChangePasswd)
	}

	// 评论
	comments := r.Group("/api/comments")
	comments.Use(middleware.AuthRequired())
	{
		comments.GET("", middleware.PermissionRequired(models.PermCheckComment), handlers.ListComments)
		comments.GET("/:id", middleware.PermissionRequired(models.PermCheckComment), handlers.GetComment)
		comments.POST("", middleware.PermissionRequired(models.PermCreateComment), handlers.CreateComment)
		comments.DELETE("/:id", middleware.PermissionRequired(models.PermDeleteComment), handlers.DeleteComment)
	}

	// 归档
	archives := r.Group("/api/archives")
	archives.Use(middleware.AuthRequired())
	{
		archives.GET("", middleware.PermissionRequired(models.PermCheckArchive), handlers.ListArchives)
		// 归档内列帖需要同时持有两个查看位
		archives.GET("/:id/comments",
			middleware.PermissionRequired(models.PermCheckArchive|models.PermCheckComment),
			handlers.ListArchiveComments)
		archives.POST("", middleware.PermissionRequired(models.PermCreateArchive), handlers.CreateArchive)
		archives.DELETE("/:id", middleware.PermissionRequired(models.PermDeleteArchive), handlers.DeleteArchive)
	}

	// 用户与关注
	users := r.Group("/api/users")
	users.Use(middleware.AuthRequired())
	{
		users.POST("/:id/follow", middleware.PermissionRequired(models.PermFollow), handlers.FollowUser)
		users.DELETE("/:id/follow", middleware.PermissionRequired(models.PermFollow), handlers.UnfollowUser)
		users.GET("/:id/followers", middleware.PermissionRequired(models.PermCheckFollow), handlers.ListFollowers)
		users.GET("/:id/following", middleware.PermissionRequired(models.PermCheckFollow), handlers.ListFollowing)
		users.GET("/:id/follow/stats", middleware.PermissionRequired(models.PermCheckFollow), handlers.FollowStats)

		// 管理操作
		users.GET("", middleware.PermissionRequired(models.PermBlockUser), handlers.ListUsers)
		users.POST("/:id/block", middleware.PermissionRequired(models.PermBlockUser), handlers.BlockUser)
		users.POST("/:id/unblock", middleware.PermissionRequired(models.PermBlockUser), handlers.UnblockUser)
		users.PUT("/:id/role", middleware.PermissionRequired(models.PermSystem), handlers.SetUserRole)
	}

	// 系统管理：备份与审计
	system := r.Group("/api/system")
	system.Use(middleware.AuthRequired())
	system.Use(middleware.PermissionRequired(models.PermSystem))
	{
		system.POST("/backups", backupHandler.RunBackup)
		system.GET("/backups", backupHandler.ListBackups)
		system.GET("/backups/:id/download", backupHandler.DownloadBackup)
		system.DELETE("/backups/:id", backupHandler.DeleteBackup)
		system.GET("/audit", auditHandler.RecentEvents)
	}

	// 启动服务器
	port := config.GetConfig().ServerPort
	log.Printf("Server starting on port %s", port)
	if err := r.Run("0.0.0.0:" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

package database

import (
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"htalk-server/config"
	"htalk-server/models"
)

var DB *gorm.DB

// InitDB 初始化数据库
func InitDB() {
	var err error

	dbPath := config.GetConfig().DBPath

	DB, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true, // 唯一约束冲突转换为 gorm.ErrDuplicatedKey
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// 自动迁移数据库结构
	err = DB.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Follow{},
		&models.Comment{},
		&models.Archive{},
		&models.BackupRecord{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	SeedRoles(DB)

	log.Printf("Database initialized successfully at: %s", dbPath)
}

// SeedRoles 写入预设角色，只在角色表为空时执行一次
func SeedRoles(db *gorm.DB) {
	var count int64
	db.Model(&models.Role{}).Count(&count)
	if count > 0 {
		return
	}

	roles := []models.Role{
		{Name: "admin", Permission: models.RolePermAdmin},
		{Name: "coordinator", Permission: models.RolePermCoordinator},
		{Name: "default", Permission: models.RolePermDefault},
		{Name: "block", Permission: models.RolePermBlock},
	}
	if err := db.Create(&roles).Error; err != nil {
		log.Fatal("Failed to seed roles:", err)
	}

	log.Println("Seeded preset roles: admin, coordinator, default, block")
}

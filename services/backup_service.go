package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"htalk-server/config"
	"htalk-server/models"
)

// BackupService 数据库手动备份
// 复制 sqlite 数据库文件并上传到 S3（或保存到本地目录）
type BackupService struct {
	db         *gorm.DB
	s3Service  *S3Service // nil 表示仅本地存储
	storageCfg *config.StorageConfig
}

func NewBackupService(db *gorm.DB, s3Service *S3Service, storageCfg *config.StorageConfig) *BackupService {
	return &BackupService{
		db:         db,
		s3Service:  s3Service,
		storageCfg: storageCfg,
	}
}

// Run 执行一次备份，记录备份历史
func (s *BackupService) Run(ctx context.Context, operatorID uint) (*models.BackupRecord, error) {
	record := &models.BackupRecord{
		Status:     "running",
		OperatorID: operatorID,
		StartedAt:  time.Now(),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("创建备份记录失败: %w", err)
	}

	err := s.performBackup(ctx, record)

	now := time.Now()
	record.CompletedAt = &now
	if err != nil {
		record.Status = "failed"
		record.ErrorMessage = err.Error()
	} else {
		record.Status = "success"
	}
	s.db.Save(record)

	return record, err
}

func (s *BackupService) performBackup(ctx context.Context, record *models.BackupRecord) error {
	dbPath := config.GetConfig().DBPath

	data, err := os.ReadFile(dbPath)
	if err != nil {
		return fmt.Errorf("读取数据库文件失败: %w", err)
	}

	fileName := fmt.Sprintf("htalk-%s-%s.db",
		time.Now().Format("20060102-150405"), uuid.New().String()[:8])
	record.FileName = fileName
	record.FileSize = int64(len(data))

	if s.storageCfg.IsS3Enabled() && s.s3Service != nil {
		key := fmt.Sprintf("%s/%s", s.storageCfg.S3Prefix, fileName)
		if err := s.s3Service.PutObject(ctx, key, data); err != nil {
			return err
		}
		record.S3Bucket = s.s3Service.Bucket()
		record.S3Key = key
		return nil
	}

	// 本地存储：放在数据库同级的 backups 目录
	backupDir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("创建备份目录失败: %w", err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, fileName), data, 0o644); err != nil {
		return fmt.Errorf("写入备份文件失败: %w", err)
	}
	return nil
}

// DownloadURL 生成备份文件的下载地址（仅 S3 备份）
func (s *BackupService) DownloadURL(ctx context.Context, record *models.BackupRecord) (string, error) {
	if record.S3Key == "" || s.s3Service == nil {
		return "", fmt.Errorf("该备份不在 S3 上")
	}
	return s.s3Service.GetPresignedURL(ctx, record.S3Key, 15*time.Minute)
}

// Delete 删除备份及其对象
func (s *BackupService) Delete(ctx context.Context, recordID uint) error {
	var record models.BackupRecord
	if err := s.db.First(&record, recordID).Error; err != nil {
		return err
	}

	if record.S3Key != "" && s.s3Service != nil {
		if err := s.s3Service.DeleteObject(ctx, record.S3Key); err != nil {
			return err
		}
	}

	return s.db.Delete(&record).Error
}

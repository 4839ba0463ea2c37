package models

import "time"

// BackupRecord 数据库备份历史
type BackupRecord struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Status       string     `gorm:"type:varchar(20)" json:"status"` // running, success, failed
	FileName     string     `gorm:"type:varchar(255)" json:"file_name"`
	FileSize     int64      `json:"file_size"`
	S3Bucket     string     `gorm:"type:varchar(255)" json:"s3_bucket,omitempty"`
	S3Key        string     `gorm:"type:varchar(500)" json:"s3_key,omitempty"`
	OperatorID   uint       `gorm:"index" json:"operator_id"` // 触发备份的用户
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

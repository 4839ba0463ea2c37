package config

import "strings"

type ClickHouseConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

func GetClickHouseConfig() *ClickHouseConfig {
	auditStorageType := strings.ToLower(getEnv("AUDIT_STORAGE_TYPE", "none"))
	clickhouseEnabled := auditStorageType == "clickhouse"
	return &ClickHouseConfig{
		Enabled:  clickhouseEnabled,
		Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
		Port:     getEnvAsInt("CLICKHOUSE_PORT", 9000),
		Database: getEnv("CLICKHOUSE_DB", "htalk_audit"),
		Username: getEnv("CLICKHOUSE_USER", "htalk"),
		Password: getEnv("CLICKHOUSE_PASSWORD", "htalk"),
	}
}

// IsClickHouseEnabled 是否启用 ClickHouse 审计日志
func IsClickHouseEnabled() bool {
	return GetClickHouseConfig().Enabled
}

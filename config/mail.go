package config

import "fmt"

// MailConfig SMTP 配置
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // 发件人地址
	Prefix   string // 邮件主题前缀
}

// GetMailConfig 从环境变量加载 SMTP 配置
func GetMailConfig() *MailConfig {
	return &MailConfig{
		Host:     getEnv("MAIL_HOST", "localhost"),
		Port:     getEnvAsInt("MAIL_PORT", 587),
		Username: getEnv("MAIL_USERNAME", ""),
		Password: getEnv("MAIL_PASSWORD", ""),
		Sender:   getEnv("MAIL_SENDER", "admin@htalk.local"),
		Prefix:   getEnv("MAIL_PREFIX", "[HTalk]"),
	}
}

// Validate 验证配置
func (c *MailConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("MAIL_HOST 未设置")
	}
	if c.Sender == "" {
		return fmt.Errorf("MAIL_SENDER 未设置")
	}
	return nil
}

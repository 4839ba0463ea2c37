package services

import (
	"fmt"
	"log"

	mail "github.com/go-mail/mail/v2"

	"htalk-server/config"
)

// Mailer 确认邮件发送器
type Mailer struct {
	cfg *config.MailConfig
}

// 允许测试替换发送过程
var dialAndSend = func(cfg *config.MailConfig, m *mail.Message) error {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return d.DialAndSend(m)
}

func NewMailer(cfg *config.MailConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send 发送一封邮件
func (s *Mailer) Send(subject, to, body string) error {
	m := mail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("HTalk Admin <%s>", s.cfg.Sender))
	m.SetHeader("To", to)
	m.SetHeader("Subject", s.cfg.Prefix+subject)
	m.SetBody("text/plain", body)

	if err := dialAndSend(s.cfg, m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	log.Printf("Send email to %s subject: %s", to, subject)
	return nil
}

// SendRegisterConfirm 发送注册确认邮件
func (s *Mailer) SendRegisterConfirm(to, confirmURL string) error {
	body := fmt.Sprintf(
		"您好，\n\n"+
			"感谢注册 HTalk。请在 1 小时内点击以下链接完成注册确认：\n\n"+
			"%s\n\n"+
			"如果这不是您本人的操作，请忽略本邮件。\n", confirmURL)
	return s.Send("注册确认", to, body)
}

// SendLoginConfirm 发送登录确认邮件
func (s *Mailer) SendLoginConfirm(to, loginURL string) error {
	body := fmt.Sprintf(
		"您好，\n\n"+
			"请在 1 小时内点击以下链接完成登录：\n\n"+
			"%s\n\n"+
			"如果这不是您本人的操作，请忽略本邮件。\n", loginURL)
	return s.Send("登录确认", to, body)
}

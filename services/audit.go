package services

import (
	"context"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

// OpEvent 一条用户操作审计事件
type OpEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    uint      `json:"user_id"` // 0 表示匿名
	Email     string    `json:"email"`
	Op        string    `json:"op"`
	Detail    string    `json:"detail"`
	ClientIP  string    `json:"client_ip"`
}

// AuditService 用户操作审计日志，写入 ClickHouse
// 写入为异步尽力而为，失败只记日志，不影响请求
type AuditService struct {
	conn   driver.Conn // nil 表示未启用
	events chan OpEvent
	done   chan struct{}
}

func NewAuditService(conn driver.Conn) *AuditService {
	s := &AuditService{
		conn:   conn,
		events: make(chan OpEvent, 256),
		done:   make(chan struct{}),
	}
	if conn != nil {
		go s.writer()
	}
	return s
}

// Record 记录一条操作事件
func (s *AuditService) Record(userID uint, email, op, detail, clientIP string) {
	if s.conn == nil {
		return
	}
	event := OpEvent{
		Timestamp: time.Now(),
		UserID:    userID,
		Email:     email,
		Op:        op,
		Detail:    detail,
		ClientIP:  clientIP,
	}
	select {
	case s.events <- event:
	default:
		// 缓冲已满时丢弃，审计日志不阻塞请求
		log.Printf("审计日志缓冲已满，丢弃事件: %s %s", op, email)
	}
}

func (s *AuditService) writer() {
	for {
		select {
		case event := <-s.events:
			s.insert(event)
		case <-s.done:
			// 退出前清空缓冲
			for {
				select {
				case event := <-s.events:
					s.insert(event)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) insert(event OpEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.conn.Exec(ctx,
		"INSERT INTO user_op_log (timestamp, user_id, email, op, detail, client_ip) VALUES (?, ?, ?, ?, ?, ?)",
		event.Timestamp, uint32(event.UserID), event.Email, event.Op, event.Detail, event.ClientIP)
	if err != nil {
		log.Printf("写入审计日志失败: %v", err)
	}
}

// RecentEvents 查询最近的操作事件
func (s *AuditService) RecentEvents(limit int) ([]OpEvent, error) {
	if s.conn == nil {
		return []OpEvent{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rows, err := s.conn.Query(ctx,
		"SELECT timestamp, user_id, email, op, detail, client_ip FROM user_op_log ORDER BY timestamp DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []OpEvent{}
	for rows.Next() {
		var event OpEvent
		var userID uint32
		if err := rows.Scan(&event.Timestamp, &userID, &event.Email, &event.Op, &event.Detail, &event.ClientIP); err != nil {
			return nil, err
		}
		event.UserID = uint(userID)
		events = append(events, event)
	}
	return events, nil
}

// Enabled 审计日志是否启用
func (s *AuditService) Enabled() bool {
	return s.conn != nil
}

// Stop 停止异步写入
func (s *AuditService) Stop() {
	if s.conn != nil {
		close(s.done)
	}
}

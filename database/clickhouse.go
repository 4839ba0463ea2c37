package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"htalk-server/config"
)

var CHConn driver.Conn

// InitClickHouse 初始化 ClickHouse 连接（用户操作审计日志，可选）
func InitClickHouse() {
	cfg := config.GetClickHouseConfig()
	if !cfg.Enabled {
		log.Println("ClickHouse 审计日志未启用，跳过初始化")
		return
	}

	log.Printf("正在连接 ClickHouse: %s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 10 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
	})
	if err != nil {
		log.Fatal("连接 ClickHouse 失败:", err)
	}

	ctx := context.Background()
	if err := conn.Ping(ctx); err != nil {
		log.Fatal("Ping ClickHouse 失败:", err)
	}

	if err := createAuditTable(ctx, conn); err != nil {
		conn.Close()
		log.Fatal("创建审计日志表失败:", err)
	}

	CHConn = conn
	log.Printf("ClickHouse 初始化完成 - 数据库: %s", cfg.Database)
}

// createAuditTable 创建审计日志表
func createAuditTable(ctx context.Context, conn driver.Conn) error {
	createTableSQL := `
    CREATE TABLE IF NOT EXISTS user_op_log (
        timestamp DateTime64(3) COMMENT '操作时间（毫秒精度）',
        date Date DEFAULT toDate(timestamp) COMMENT '日期（用于分区）',
        user_id UInt32 COMMENT '用户ID，0表示匿名',
        email String COMMENT '用户邮箱',
        op String COMMENT '操作类型（register/login/follow/comment等）',
        detail String COMMENT '操作详情',
        client_ip String COMMENT '客户端IP'
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(date)
    ORDER BY (date, user_id, timestamp)
    TTL date + INTERVAL 90 DAY
    SETTINGS index_granularity = 8192
    COMMENT '用户操作审计日志表'
    `

	if err := conn.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("创建 user_op_log 表失败: %w", err)
	}

	return nil
}

// CloseClickHouse 关闭连接
func CloseClickHouse() {
	if CHConn != nil {
		CHConn.Close()
		log.Println("ClickHouse 连接已关闭")
	}
}

// CheckClickHouseHealth 健康检查
func CheckClickHouseHealth() error {
	if CHConn == nil {
		return fmt.Errorf("ClickHouse 连接未初始化")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := CHConn.Ping(ctx); err != nil {
		return fmt.Errorf("ClickHouse 健康检查失败: %w", err)
	}

	return nil
}

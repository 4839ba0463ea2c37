package models

import "time"

// 权限位定义
// 数值已写入 role 表，禁止调整顺序或重新编号
const (
	PermUsable        = 1 // 账号可使用
	PermCheckComment  = 2
	PermCheckArchive  = 4
	PermCheckFollow   = 8
	PermCreateComment = 16
	PermCreateArchive = 32 // 系统权限
	PermFollow        = 64
	PermBlockUser     = 128 // 系统权限
	PermDeleteComment = 256 // 系统权限
	PermDeleteArchive = 512 // 系统权限
	PermSystem        = 1024
)

// 预设角色的权限值
const (
	RolePermAdmin       = 2047 // 全部权限
	RolePermCoordinator = 1023 // 除 SYSTEM 外全部
	RolePermDefault     = 95   // 非系统权限
	RolePermBlock       = 14   // 仅查看位，无 USABLE，封禁账号用
)

type Role struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	Name       string    `json:"name" gorm:"uniqueIndex;not null"`
	Permission uint      `json:"permission" gorm:"not null;default:95"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasPermission 判断角色是否持有 perm 要求的全部权限位
func (r *Role) HasPermission(perm uint) bool {
	return r.Permission&perm == perm
}

// AddPermission 置位，已持有时无副作用
func (r *Role) AddPermission(perm uint) {
	r.Permission |= perm
}

// RemovePermission 清位，未持有时无副作用
func (r *Role) RemovePermission(perm uint) {
	r.Permission &^= perm
}

package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	Email      string    `json:"email" gorm:"uniqueIndex;size:32;not null"`
	PasswdHash string    `json:"-" gorm:"size:128;not null"` // bcrypt 哈希
	RoleID     uint      `json:"role_id"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HashPasswd 生成密码哈希
func HashPasswd(passwd string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPasswd 校验明文密码
func (u *User) CheckPasswd(passwd string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswdHash), []byte(passwd)) == nil
}

// Principal 当前请求的主体：已登录用户或匿名访客
// 匿名主体权限恒为 0
type Principal struct {
	User *User // nil 表示匿名
}

func Anonymous() Principal {
	return Principal{}
}

func Authenticated(u *User) Principal {
	return Principal{User: u}
}

func (p Principal) IsAuthenticated() bool {
	return p.User != nil
}

// PermissionMask 主体的权限位
func (p Principal) PermissionMask() uint {
	if p.User == nil {
		return 0
	}
	return p.User.Role.Permission
}

// HasPermission 判断主体是否持有 perm 要求的全部权限位
func (p Principal) HasPermission(perm uint) bool {
	return p.PermissionMask()&perm == perm
}

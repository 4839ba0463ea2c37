package models

import "time"

// Follow 关注关系（follower 关注 followed）
// 复合唯一索引保证同一对用户至多一条边
type Follow struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	FollowerID uint      `json:"follower_id" gorm:"not null;index:idx_follow_pair,unique"`
	FollowedID uint      `json:"followed_id" gorm:"not null;index:idx_follow_pair,unique"`
	Follower   User      `json:"-" gorm:"foreignKey:FollowerID"`
	Followed   User      `json:"-" gorm:"foreignKey:FollowedID"`
	CreatedAt  time.Time `json:"created_at"`
}

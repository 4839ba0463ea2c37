package models

import "time"

// Comment 评论
// 主题帖：Title 非空且 FatherID 为空；回复：Title 为空且 FatherID 非空
// 该约定由创建逻辑校验，不依赖数据库约束
type Comment struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Title     *string   `json:"title" gorm:"size:32"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    User      `json:"author"`
	FatherID  *uint     `json:"father_id" gorm:"index"`
	Father    *Comment  `json:"-" gorm:"foreignKey:FatherID"`
	Sons      []Comment `json:"sons,omitempty" gorm:"foreignKey:FatherID"`
	Archives  []Archive `json:"archives,omitempty" gorm:"many2many:archive_comments;"`
	CreatedAt time.Time `json:"create_time"`
	UpdatedAt time.Time `json:"update_time"`
}

// IsRoot 是否为主题帖
func (c *Comment) IsRoot() bool {
	return c.Title != nil && c.FatherID == nil
}

// Archive 评论归档（分类）
type Archive struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:32;not null"`
	Describe  string    `json:"describe" gorm:"size:100;not null"`
	Comments  []Comment `json:"-" gorm:"many2many:archive_comments;"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

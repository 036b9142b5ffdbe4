package models

import (
	"time"

	"gorm.io/gorm"
)

// Dealer 经销商表（推荐树节点）
type Dealer struct {
	ID        uint           `gorm:"primarykey" json:"id"`                          // 主键
	ParentID  *uint          `gorm:"index" json:"parent_id,omitempty"`              // 推荐人ID（空为顶级经销商）
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`        // 经销商名称
	Email     string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`    // 联系邮箱
	Status    string         `gorm:"type:varchar(20);not null;index" json:"status"` // 状态（active/disabled）
	JoinedAt  time.Time      `gorm:"not null;index" json:"joined_at"`               // 加入时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt time.Time      `json:"updated_at"`                                    // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间

	Parent   *Dealer  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`   // 推荐人
	Children []Dealer `gorm:"foreignKey:ParentID" json:"children,omitempty"` // 直推下级
}

// TableName 指定表名
func (Dealer) TableName() string {
	return "dealers"
}

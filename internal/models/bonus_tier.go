package models

import (
	"time"
)

// BonusTier 奖金档位表（营业额区间映射返利比例）
type BonusTier struct {
	ID           uint      `gorm:"primarykey" json:"id"`                                       // 主键
	Name         string    `gorm:"type:varchar(50);not null" json:"name"`                      // 档位名称
	MinAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"min_amount"`    // 区间下限（含）
	MaxAmount    *Money    `gorm:"type:decimal(20,2)" json:"max_amount,omitempty"`             // 区间上限（含，空为最高档）
	BonusPercent Money     `gorm:"type:decimal(10,2);not null;default:0" json:"bonus_percent"` // 返利比例（百分比）
	SortOrder    int       `gorm:"not null;default:0;index" json:"sort_order"`                 // 排序（按下限升序）
	CreatedAt    time.Time `json:"created_at"`                                                 // 创建时间
	UpdatedAt    time.Time `json:"updated_at"`                                                 // 更新时间
}

// TableName 指定表名
func (BonusTier) TableName() string {
	return "bonus_tiers"
}

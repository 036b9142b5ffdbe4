package models

import (
	"time"
)

// SettlementPeriod 结算周期表（按自然月，行锁串行化封账/发放）
type SettlementPeriod struct {
	ID          uint       `gorm:"primarykey" json:"id"`                                     // 主键
	Month       string     `gorm:"type:varchar(7);uniqueIndex;not null" json:"month"`        // 结算月份（YYYY-MM）
	Status      string     `gorm:"type:varchar(20);not null;index" json:"status"`            // 状态（open/finalized/paid）
	BonusCount  int64      `gorm:"not null;default:0" json:"bonus_count"`                    // 封账奖金笔数
	BonusTotal  Money      `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_total"` // 封账奖金总额
	FinalizedBy *uint      `json:"finalized_by,omitempty"`                                   // 封账操作管理员ID
	FinalizedAt *time.Time `gorm:"index" json:"finalized_at,omitempty"`                      // 封账时间
	PaidBy      *uint      `json:"paid_by,omitempty"`                                        // 发放操作管理员ID
	PaidAt      *time.Time `gorm:"index" json:"paid_at,omitempty"`                           // 发放时间
	CreatedAt   time.Time  `json:"created_at"`                                               // 创建时间
	UpdatedAt   time.Time  `json:"updated_at"`                                               // 更新时间
}

// TableName 指定表名
func (SettlementPeriod) TableName() string {
	return "settlement_periods"
}

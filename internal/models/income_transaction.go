package models

import (
	"time"
)

// IncomeTransaction 收入流水（账本入账原子记录，至多被一笔提现申请占用）
type IncomeTransaction struct {
	ID                  uint      `gorm:"primarykey" json:"id"`                                // 主键
	DealerID            uint      `gorm:"not null;index" json:"dealer_id"`                     // 经销商ID
	Month               string    `gorm:"type:varchar(7);index" json:"month"`                  // 归属月份
	Type                string    `gorm:"type:varchar(32);not null;index" json:"type"`         // 流水类型（order_bonus/differential_bonus/subscription_bonus）
	Amount              Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 入账金额
	BonusTransactionID  *uint     `gorm:"index" json:"bonus_transaction_id,omitempty"`         // 来源奖金明细ID
	IsWithdrawn         bool      `gorm:"not null;default:false;index" json:"is_withdrawn"`    // 是否已被提现占用
	WithdrawalRequestID *uint     `gorm:"index" json:"withdrawal_request_id,omitempty"`        // 占用提现申请ID
	Remark              string    `gorm:"type:varchar(255)" json:"remark"`                     // 备注
	CreatedAt           time.Time `gorm:"index" json:"created_at"`                             // 创建时间

	Dealer Dealer `gorm:"foreignKey:DealerID" json:"dealer,omitempty"` // 经销商
}

// TableName 指定表名
func (IncomeTransaction) TableName() string {
	return "income_transactions"
}

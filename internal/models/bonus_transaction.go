package models

import (
	"time"
)

// BonusTransaction 月度奖金明细（封账时生成，生成后不可变更）
type BonusTransaction struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                       // 主键
	Month          string    `gorm:"type:varchar(7);not null;index" json:"month"`                // 结算月份
	BeneficiaryID  uint      `gorm:"not null;index" json:"beneficiary_id"`                       // 受益经销商ID
	ContributorID  uint      `gorm:"not null;index" json:"contributor_id"`                       // 业绩来源经销商ID
	OrderID        uint      `gorm:"not null;index" json:"order_id"`                             // 来源订单ID
	BonusType      string    `gorm:"type:varchar(20);not null;index" json:"bonus_type"`          // 奖金类型（personal/differential）
	OrderAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`  // 订单金额
	BonusPercent   Money     `gorm:"type:decimal(10,2);not null;default:0" json:"bonus_percent"` // 计提比例差额（百分比）
	BonusAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"bonus_amount"`  // 奖金金额
	HierarchyLevel int       `gorm:"not null;default:0" json:"hierarchy_level"`                  // 与来源经销商的层级距离
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                    // 创建时间

	Beneficiary Dealer `gorm:"foreignKey:BeneficiaryID" json:"beneficiary,omitempty"` // 受益经销商
	Contributor Dealer `gorm:"foreignKey:ContributorID" json:"contributor,omitempty"` // 业绩来源经销商
	Order       Order  `gorm:"foreignKey:OrderID" json:"order,omitempty"`             // 来源订单
}

// TableName 指定表名
func (BonusTransaction) TableName() string {
	return "bonus_transactions"
}

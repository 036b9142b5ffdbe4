package models

import (
	"time"
)

// TurnoverRecord 经销商月度营业额记录（结算前可变，封账后冻结）
type TurnoverRecord struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                                               // 主键
	DealerID         uint      `gorm:"not null;index;index:idx_turnover_dealer_month,unique" json:"dealer_id"`             // 经销商ID
	Month            string    `gorm:"type:varchar(7);not null;index;index:idx_turnover_dealer_month,unique" json:"month"` // 结算月份
	PersonalTurnover Money     `gorm:"type:decimal(20,2);not null;default:0" json:"personal_turnover"`                     // 个人营业额
	TeamTurnover     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"team_turnover"`                         // 团队营业额
	TotalTurnover    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_turnover"`                        // 合计营业额
	TierID           uint      `gorm:"not null;default:0" json:"tier_id"`                                                  // 匹配档位ID
	TierName         string    `gorm:"type:varchar(50)" json:"tier_name"`                                                  // 匹配档位名称
	BonusPercent     Money     `gorm:"type:decimal(10,2);not null;default:0" json:"bonus_percent"`                         // 匹配返利比例
	IsFinal          bool      `gorm:"not null;default:false;index" json:"is_final"`                                       // 是否已封账
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                                            // 创建时间
	UpdatedAt        time.Time `json:"updated_at"`                                                                         // 更新时间

	Dealer Dealer `gorm:"foreignKey:DealerID" json:"dealer,omitempty"` // 经销商
}

// TableName 指定表名
func (TurnoverRecord) TableName() string {
	return "turnover_records"
}

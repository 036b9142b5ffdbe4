package repository

import (
	"github.com/meili-next/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// BonusRepository 奖金明细数据访问接口
type BonusRepository interface {
	WithTx(tx *gorm.DB) BonusRepository

	CreateBatch(transactions []models.BonusTransaction) error
	List(filter BonusListFilter) ([]models.BonusTransaction, int64, error)
	ListByMonth(month string) ([]models.BonusTransaction, error)
	CountAndSumByMonth(month string) (int64, decimal.Decimal, error)
	SumByBeneficiaryAndMonth(month string) (map[uint]decimal.Decimal, error)
}

// GormBonusRepository GORM 奖金明细仓储
type GormBonusRepository struct {
	db *gorm.DB
}

// NewBonusRepository 创建奖金明细仓储
func NewBonusRepository(db *gorm.DB) *GormBonusRepository {
	return &GormBonusRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBonusRepository) WithTx(tx *gorm.DB) BonusRepository {
	if tx == nil {
		return r
	}
	return &GormBonusRepository{db: tx}
}

// CreateBatch 批量写入奖金明细
func (r *GormBonusRepository) CreateBatch(transactions []models.BonusTransaction) error {
	if len(transactions) == 0 {
		return nil
	}
	return r.db.CreateInBatches(&transactions, 200).Error
}

// List 分页查询奖金明细
func (r *GormBonusRepository) List(filter BonusListFilter) ([]models.BonusTransaction, int64, error) {
	query := r.db.Model(&models.BonusTransaction{})
	if filter.Month != "" {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.BeneficiaryID != 0 {
		query = query.Where("beneficiary_id = ?", filter.BeneficiaryID)
	}
	if filter.ContributorID != 0 {
		query = query.Where("contributor_id = ?", filter.ContributorID)
	}
	if filter.BonusType != "" {
		query = query.Where("bonus_type = ?", filter.BonusType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var transactions []models.BonusTransaction
	if err := query.Order("id desc").Find(&transactions).Error; err != nil {
		return nil, 0, err
	}
	return transactions, total, nil
}

// ListByMonth 获取指定月份全部奖金明细
func (r *GormBonusRepository) ListByMonth(month string) ([]models.BonusTransaction, error) {
	transactions := make([]models.BonusTransaction, 0)
	if err := r.db.Where("month = ?", month).Order("id ASC").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// CountAndSumByMonth 统计当月奖金笔数与总额
func (r *GormBonusRepository) CountAndSumByMonth(month string) (int64, decimal.Decimal, error) {
	var row struct {
		Count int64
		Total string
	}
	err := r.db.Model(&models.BonusTransaction{}).
		Select("COUNT(*) AS count, COALESCE(SUM(bonus_amount), 0) AS total").
		Where("month = ?", month).
		Scan(&row).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	total, err := decimal.NewFromString(row.Total)
	if err != nil {
		return 0, decimal.Zero, err
	}
	return row.Count, total, nil
}

// SumByBeneficiaryAndMonth 按受益人汇总当月奖金
func (r *GormBonusRepository) SumByBeneficiaryAndMonth(month string) (map[uint]decimal.Decimal, error) {
	var rows []struct {
		BeneficiaryID uint
		Total         string
	}
	err := r.db.Model(&models.BonusTransaction{}).
		Select("beneficiary_id, COALESCE(SUM(bonus_amount), 0) AS total").
		Where("month = ?", month).
		Group("beneficiary_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uint]decimal.Decimal, len(rows))
	for _, row := range rows {
		total, err := decimal.NewFromString(row.Total)
		if err != nil {
			return nil, err
		}
		result[row.BeneficiaryID] = total
	}
	return result, nil
}

package repository

import (
	"errors"

	"github.com/meili-next/internal/models"

	"gorm.io/gorm"
)

// PeriodRepository 结算周期数据访问接口
type PeriodRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) PeriodRepository

	GetByMonth(month string) (*models.SettlementPeriod, error)
	GetByMonthForUpdate(month string) (*models.SettlementPeriod, error)
	Create(period *models.SettlementPeriod) error
	Update(period *models.SettlementPeriod) error
	List(page, pageSize int) ([]models.SettlementPeriod, int64, error)
}

// GormPeriodRepository GORM 结算周期仓储
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewPeriodRepository 创建结算周期仓储
func NewPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPeriodRepository) WithTx(tx *gorm.DB) PeriodRepository {
	if tx == nil {
		return r
	}
	return &GormPeriodRepository{db: tx}
}

// Transaction 执行事务
func (r *GormPeriodRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByMonth 按月份获取结算周期
func (r *GormPeriodRepository) GetByMonth(month string) (*models.SettlementPeriod, error) {
	if month == "" {
		return nil, nil
	}
	var period models.SettlementPeriod
	if err := r.db.Where("month = ?", month).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// GetByMonthForUpdate 按月份加锁获取结算周期（封账/发放串行化）
func (r *GormPeriodRepository) GetByMonthForUpdate(month string) (*models.SettlementPeriod, error) {
	if month == "" {
		return nil, nil
	}
	var period models.SettlementPeriod
	if err := r.db.Clauses(lockForUpdate()).
		Where("month = ?", month).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// Create 创建结算周期
func (r *GormPeriodRepository) Create(period *models.SettlementPeriod) error {
	return r.db.Create(period).Error
}

// Update 更新结算周期
func (r *GormPeriodRepository) Update(period *models.SettlementPeriod) error {
	return r.db.Save(period).Error
}

// List 分页查询结算周期（月份倒序）
func (r *GormPeriodRepository) List(page, pageSize int) ([]models.SettlementPeriod, int64, error) {
	query := r.db.Model(&models.SettlementPeriod{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var periods []models.SettlementPeriod
	if err := query.Order("month DESC").Find(&periods).Error; err != nil {
		return nil, 0, err
	}
	return periods, total, nil
}

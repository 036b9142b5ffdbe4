package repository

import (
	"errors"

	"github.com/meili-next/internal/models"

	"gorm.io/gorm"
)

// TurnoverRepository 业绩聚合数据访问接口
type TurnoverRepository interface {
	WithTx(tx *gorm.DB) TurnoverRepository

	GetByDealerAndMonth(dealerID uint, month string) (*models.TurnoverRecord, error)
	ListByMonth(month string) ([]models.TurnoverRecord, error)
	ListByDealer(dealerID uint) ([]models.TurnoverRecord, error)
	ReplaceMonth(month string, records []models.TurnoverRecord) error
	MarkFinalByMonth(tx *gorm.DB, month string) error
}

// GormTurnoverRepository GORM 业绩聚合仓储
type GormTurnoverRepository struct {
	db *gorm.DB
}

// NewTurnoverRepository 创建业绩聚合仓储
func NewTurnoverRepository(db *gorm.DB) *GormTurnoverRepository {
	return &GormTurnoverRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTurnoverRepository) WithTx(tx *gorm.DB) TurnoverRepository {
	if tx == nil {
		return r
	}
	return &GormTurnoverRepository{db: tx}
}

// GetByDealerAndMonth 按经销商与月份获取业绩记录
func (r *GormTurnoverRepository) GetByDealerAndMonth(dealerID uint, month string) (*models.TurnoverRecord, error) {
	if dealerID == 0 || month == "" {
		return nil, nil
	}
	var record models.TurnoverRecord
	if err := r.db.Where("dealer_id = ? AND month = ?", dealerID, month).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListByMonth 获取指定月份全部业绩记录
func (r *GormTurnoverRepository) ListByMonth(month string) ([]models.TurnoverRecord, error) {
	records := make([]models.TurnoverRecord, 0)
	if err := r.db.Where("month = ?", month).Order("dealer_id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListByDealer 获取经销商全部月份业绩记录
func (r *GormTurnoverRepository) ListByDealer(dealerID uint) ([]models.TurnoverRecord, error) {
	records := make([]models.TurnoverRecord, 0)
	if err := r.db.Where("dealer_id = ?", dealerID).Order("month DESC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ReplaceMonth 重算后整月替换业绩记录（已封账月份由上层拦截）
func (r *GormTurnoverRepository) ReplaceMonth(month string, records []models.TurnoverRecord) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("month = ? AND is_final = ?", month, false).Delete(&models.TurnoverRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
}

// MarkFinalByMonth 封账时固化当月业绩记录
func (r *GormTurnoverRepository) MarkFinalByMonth(tx *gorm.DB, month string) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.Model(&models.TurnoverRecord{}).
		Where("month = ?", month).
		Update("is_final", true).Error
}

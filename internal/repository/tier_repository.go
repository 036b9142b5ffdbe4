package repository

import (
	"errors"

	"github.com/meili-next/internal/models"

	"gorm.io/gorm"
)

// TierRepository 奖金档位数据访问接口
type TierRepository interface {
	WithTx(tx *gorm.DB) TierRepository

	ListOrdered() ([]models.BonusTier, error)
	GetByID(id uint) (*models.BonusTier, error)
	Create(tier *models.BonusTier) error
	Update(tier *models.BonusTier) error
	Delete(id uint) error
	ReplaceAll(tiers []models.BonusTier) error
}

// GormTierRepository GORM 奖金档位仓储
type GormTierRepository struct {
	db *gorm.DB
}

// NewTierRepository 创建奖金档位仓储
func NewTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTierRepository) WithTx(tx *gorm.DB) TierRepository {
	if tx == nil {
		return r
	}
	return &GormTierRepository{db: tx}
}

// ListOrdered 按档位下限升序获取全部档位
func (r *GormTierRepository) ListOrdered() ([]models.BonusTier, error) {
	tiers := make([]models.BonusTier, 0)
	if err := r.db.Order("min_amount ASC").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// GetByID 按ID获取档位
func (r *GormTierRepository) GetByID(id uint) (*models.BonusTier, error) {
	if id == 0 {
		return nil, nil
	}
	var tier models.BonusTier
	if err := r.db.First(&tier, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tier, nil
}

// Create 创建档位
func (r *GormTierRepository) Create(tier *models.BonusTier) error {
	return r.db.Create(tier).Error
}

// Update 更新档位
func (r *GormTierRepository) Update(tier *models.BonusTier) error {
	return r.db.Save(tier).Error
}

// Delete 删除档位
func (r *GormTierRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.BonusTier{}, id).Error
}

// ReplaceAll 整表替换档位（校验通过后原子写入）
func (r *GormTierRepository) ReplaceAll(tiers []models.BonusTier) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.BonusTier{}).Error; err != nil {
			return err
		}
		if len(tiers) == 0 {
			return nil
		}
		return tx.Create(&tiers).Error
	})
}

package repository

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/models"

	"gorm.io/gorm"
)

// DealerRepository 经销商数据访问接口
type DealerRepository interface {
	WithTx(tx *gorm.DB) DealerRepository

	GetByID(id uint) (*models.Dealer, error)
	GetByEmail(email string) (*models.Dealer, error)
	ListAll() ([]models.Dealer, error)
	ListActive() ([]models.Dealer, error)
	List(filter DealerListFilter) ([]models.Dealer, int64, error)
	Create(dealer *models.Dealer) error
	Update(dealer *models.Dealer) error
	CountChildren(parentID uint) (int64, error)
}

// GormDealerRepository GORM 经销商仓储
type GormDealerRepository struct {
	db *gorm.DB
}

// NewDealerRepository 创建经销商仓储
func NewDealerRepository(db *gorm.DB) *GormDealerRepository {
	return &GormDealerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDealerRepository) WithTx(tx *gorm.DB) DealerRepository {
	if tx == nil {
		return r
	}
	return &GormDealerRepository{db: tx}
}

// GetByID 按ID获取经销商
func (r *GormDealerRepository) GetByID(id uint) (*models.Dealer, error) {
	if id == 0 {
		return nil, nil
	}
	var dealer models.Dealer
	if err := r.db.First(&dealer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dealer, nil
}

// GetByEmail 按邮箱获取经销商
func (r *GormDealerRepository) GetByEmail(email string) (*models.Dealer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}
	var dealer models.Dealer
	if err := r.db.Where("email = ?", email).First(&dealer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &dealer, nil
}

// ListAll 获取全部经销商（含停用，构建谱系树用）
func (r *GormDealerRepository) ListAll() ([]models.Dealer, error) {
	dealers := make([]models.Dealer, 0)
	if err := r.db.Order("id ASC").Find(&dealers).Error; err != nil {
		return nil, err
	}
	return dealers, nil
}

// ListActive 获取全部激活状态经销商
func (r *GormDealerRepository) ListActive() ([]models.Dealer, error) {
	dealers := make([]models.Dealer, 0)
	if err := r.db.Where("status = ?", "active").Order("id ASC").Find(&dealers).Error; err != nil {
		return nil, err
	}
	return dealers, nil
}

// List 分页查询经销商
func (r *GormDealerRepository) List(filter DealerListFilter) ([]models.Dealer, int64, error) {
	query := r.db.Model(&models.Dealer{})
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("(name LIKE ? OR email LIKE ?)", like, like)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ParentID != nil {
		query = query.Where("parent_id = ?", *filter.ParentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var dealers []models.Dealer
	if err := query.Order("id desc").Find(&dealers).Error; err != nil {
		return nil, 0, err
	}
	return dealers, total, nil
}

// Create 创建经销商
func (r *GormDealerRepository) Create(dealer *models.Dealer) error {
	return r.db.Create(dealer).Error
}

// Update 更新经销商
func (r *GormDealerRepository) Update(dealer *models.Dealer) error {
	return r.db.Save(dealer).Error
}

// CountChildren 统计直接下级数量
func (r *GormDealerRepository) CountChildren(parentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Dealer{}).Where("parent_id = ?", parentID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

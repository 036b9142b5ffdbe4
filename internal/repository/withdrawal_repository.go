package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/meili-next/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// WithdrawalRepository 提现申请数据访问接口
type WithdrawalRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) WithdrawalRepository

	Create(req *models.WithdrawalRequest) error
	Update(req *models.WithdrawalRequest) error
	GetByID(id uint) (*models.WithdrawalRequest, error)
	GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error)
	GetByWithdrawalNo(withdrawalNo string) (*models.WithdrawalRequest, error)
	List(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error)
	CountByDealerAndStatuses(dealerID uint, statuses []string) (int64, error)
	CountByDealerSince(dealerID uint, since time.Time) (int64, error)
	SumCompletedByDealer(dealerID uint) (decimal.Decimal, error)
	GetLatestByDealer(dealerID uint) (*models.WithdrawalRequest, error)
}

// GormWithdrawalRepository GORM 提现申请仓储
type GormWithdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository 创建提现申请仓储
func NewWithdrawalRepository(db *gorm.DB) *GormWithdrawalRepository {
	return &GormWithdrawalRepository{db: db}
}

// WithTx 绑定事务
func (r *GormWithdrawalRepository) WithTx(tx *gorm.DB) WithdrawalRepository {
	if tx == nil {
		return r
	}
	return &GormWithdrawalRepository{db: tx}
}

// Transaction 执行事务
func (r *GormWithdrawalRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建提现申请
func (r *GormWithdrawalRepository) Create(req *models.WithdrawalRequest) error {
	return r.db.Create(req).Error
}

// Update 更新提现申请
func (r *GormWithdrawalRepository) Update(req *models.WithdrawalRequest) error {
	return r.db.Save(req).Error
}

// GetByID 按ID获取提现申请
func (r *GormWithdrawalRepository) GetByID(id uint) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var req models.WithdrawalRequest
	if err := r.db.First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// GetByIDForUpdate 按ID加锁获取提现申请（状态流转串行化）
func (r *GormWithdrawalRepository) GetByIDForUpdate(id uint) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, nil
	}
	var req models.WithdrawalRequest
	if err := r.db.Clauses(lockForUpdate()).
		First(&req, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// GetByWithdrawalNo 按提现单号获取提现申请
func (r *GormWithdrawalRepository) GetByWithdrawalNo(withdrawalNo string) (*models.WithdrawalRequest, error) {
	withdrawalNo = strings.TrimSpace(withdrawalNo)
	if withdrawalNo == "" {
		return nil, nil
	}
	var req models.WithdrawalRequest
	if err := r.db.Where("withdrawal_no = ?", withdrawalNo).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

// List 分页查询提现申请
func (r *GormWithdrawalRepository) List(filter WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	query := r.db.Model(&models.WithdrawalRequest{})
	if filter.DealerID != 0 {
		query = query.Where("dealer_id = ?", filter.DealerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.WithdrawalNo != "" {
		query = query.Where("withdrawal_no LIKE ?", "%"+filter.WithdrawalNo+"%")
	}
	if filter.RiskBand != "" {
		query = query.Where("risk_band = ?", filter.RiskBand)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var reqs []models.WithdrawalRequest
	if err := query.Order("id desc").Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// CountByDealerAndStatuses 统计经销商处于指定状态的提现申请数
func (r *GormWithdrawalRepository) CountByDealerAndStatuses(dealerID uint, statuses []string) (int64, error) {
	if dealerID == 0 || len(statuses) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("dealer_id = ? AND status IN ?", dealerID, statuses).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CountByDealerSince 统计经销商自指定时间以来的提现申请数（风控频次）
func (r *GormWithdrawalRepository) CountByDealerSince(dealerID uint, since time.Time) (int64, error) {
	if dealerID == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.Model(&models.WithdrawalRequest{}).
		Where("dealer_id = ? AND created_at >= ?", dealerID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SumCompletedByDealer 汇总经销商历史已完成提现金额
func (r *GormWithdrawalRepository) SumCompletedByDealer(dealerID uint) (decimal.Decimal, error) {
	if dealerID == 0 {
		return decimal.Zero, nil
	}
	var raw string
	err := r.db.Model(&models.WithdrawalRequest{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("dealer_id = ? AND status = ?", dealerID, "completed").
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// GetLatestByDealer 获取经销商最近一笔提现申请
func (r *GormWithdrawalRepository) GetLatestByDealer(dealerID uint) (*models.WithdrawalRequest, error) {
	if dealerID == 0 {
		return nil, nil
	}
	var req models.WithdrawalRequest
	if err := r.db.Where("dealer_id = ?", dealerID).
		Order("id DESC").
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

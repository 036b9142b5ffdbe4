package repository

import (
	"errors"

	"github.com/meili-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockForUpdate 行级排他锁子句
func lockForUpdate() clause.Locking {
	return clause.Locking{Strength: "UPDATE"}
}

// LedgerRepository 账本数据访问接口
type LedgerRepository interface {
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) LedgerRepository

	GetAccountByDealerID(dealerID uint) (*models.LedgerAccount, error)
	GetAccountByDealerIDForUpdate(dealerID uint) (*models.LedgerAccount, error)
	ListAccounts() ([]models.LedgerAccount, error)
	CreateAccount(account *models.LedgerAccount) error
	UpdateAccount(account *models.LedgerAccount) error

	CreateIncome(txn *models.IncomeTransaction) error
	ListIncome(filter IncomeListFilter) ([]models.IncomeTransaction, int64, error)
	ListIncomeByIDsForUpdate(dealerID uint, ids []uint) ([]models.IncomeTransaction, error)
	ListIncomeByWithdrawalForUpdate(withdrawalID uint) ([]models.IncomeTransaction, error)
	BatchUpdateIncome(ids []uint, updates map[string]interface{}) error
}

// GormLedgerRepository GORM 账本仓储
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 执行事务
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetAccountByDealerID 按经销商ID获取账本账户
func (r *GormLedgerRepository) GetAccountByDealerID(dealerID uint) (*models.LedgerAccount, error) {
	if dealerID == 0 {
		return nil, nil
	}
	var account models.LedgerAccount
	if err := r.db.Where("dealer_id = ?", dealerID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetAccountByDealerIDForUpdate 按经销商ID加锁获取账本账户
func (r *GormLedgerRepository) GetAccountByDealerIDForUpdate(dealerID uint) (*models.LedgerAccount, error) {
	if dealerID == 0 {
		return nil, nil
	}
	var account models.LedgerAccount
	if err := r.db.Clauses(lockForUpdate()).
		Where("dealer_id = ?", dealerID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ListAccounts 获取全部账本账户（守恒校验用）
func (r *GormLedgerRepository) ListAccounts() ([]models.LedgerAccount, error) {
	accounts := make([]models.LedgerAccount, 0)
	if err := r.db.Order("dealer_id ASC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// CreateAccount 创建账本账户
func (r *GormLedgerRepository) CreateAccount(account *models.LedgerAccount) error {
	return r.db.Create(account).Error
}

// UpdateAccount 更新账本账户
func (r *GormLedgerRepository) UpdateAccount(account *models.LedgerAccount) error {
	return r.db.Save(account).Error
}

// CreateIncome 创建收入流水
func (r *GormLedgerRepository) CreateIncome(txn *models.IncomeTransaction) error {
	return r.db.Create(txn).Error
}

// ListIncome 分页查询收入流水
func (r *GormLedgerRepository) ListIncome(filter IncomeListFilter) ([]models.IncomeTransaction, int64, error) {
	query := r.db.Model(&models.IncomeTransaction{})
	if filter.DealerID != 0 {
		query = query.Where("dealer_id = ?", filter.DealerID)
	}
	if filter.Month != "" {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.IsWithdrawn != nil {
		query = query.Where("is_withdrawn = ?", *filter.IsWithdrawn)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var txns []models.IncomeTransaction
	if err := query.Order("id desc").Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// ListIncomeByIDsForUpdate 按ID集合加锁获取经销商收入流水
func (r *GormLedgerRepository) ListIncomeByIDsForUpdate(dealerID uint, ids []uint) ([]models.IncomeTransaction, error) {
	if dealerID == 0 || len(ids) == 0 {
		return []models.IncomeTransaction{}, nil
	}
	var txns []models.IncomeTransaction
	err := r.db.Clauses(lockForUpdate()).
		Where("dealer_id = ? AND id IN ?", dealerID, ids).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// ListIncomeByWithdrawalForUpdate 加锁获取提现申请占用的收入流水
func (r *GormLedgerRepository) ListIncomeByWithdrawalForUpdate(withdrawalID uint) ([]models.IncomeTransaction, error) {
	if withdrawalID == 0 {
		return []models.IncomeTransaction{}, nil
	}
	var txns []models.IncomeTransaction
	err := r.db.Clauses(lockForUpdate()).
		Where("withdrawal_request_id = ?", withdrawalID).
		Order("id ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

// BatchUpdateIncome 批量更新收入流水
func (r *GormLedgerRepository) BatchUpdateIncome(ids []uint, updates map[string]interface{}) error {
	if len(ids) == 0 || len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.IncomeTransaction{}).
		Where("id IN ?", ids).
		Updates(updates).Error
}

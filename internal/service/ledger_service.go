package service

import (
	"time"

	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService 经销商账本服务，余额只能经由入账与提现流转变更
type LedgerService struct {
	ledgerRepo repository.LedgerRepository
}

// NewLedgerService 创建账本服务
func NewLedgerService(ledgerRepo repository.LedgerRepository) *LedgerService {
	return &LedgerService{ledgerRepo: ledgerRepo}
}

// GetOrCreateAccount 获取账本账户，不存在则自动开户
func (s *LedgerService) GetOrCreateAccount(dealerID uint) (*models.LedgerAccount, error) {
	if dealerID == 0 {
		return nil, ErrNotFound
	}
	account, err := s.ledgerRepo.GetAccountByDealerID(dealerID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.LedgerAccount{DealerID: dealerID}
	if err := s.ledgerRepo.CreateAccount(account); err != nil {
		return nil, err
	}
	return account, nil
}

// CreditInput 入账参数
type CreditInput struct {
	DealerID           uint
	Month              string
	Type               string
	Amount             decimal.Decimal
	BonusTransactionID *uint
	Remark             string
}

// Credit 在调用方事务内入账：余额与累计入账同步增加，并写一条收入流水。
// 仅限月度发放与订阅奖金两个入口调用。
func (s *LedgerService) Credit(tx *gorm.DB, input CreditInput) (*models.IncomeTransaction, error) {
	amount := input.Amount.Round(2)
	if input.DealerID == 0 || amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	repoTx := s.ledgerRepo.WithTx(tx)

	account, err := repoTx.GetAccountByDealerIDForUpdate(input.DealerID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &models.LedgerAccount{DealerID: input.DealerID}
		if err := repoTx.CreateAccount(account); err != nil {
			return nil, err
		}
	}

	account.CurrentBalance = models.NewMoneyFromDecimal(account.CurrentBalance.Decimal.Add(amount).Round(2))
	account.TotalEarned = models.NewMoneyFromDecimal(account.TotalEarned.Decimal.Add(amount).Round(2))
	account.UpdatedAt = time.Now()
	if err := repoTx.UpdateAccount(account); err != nil {
		return nil, err
	}

	txn := &models.IncomeTransaction{
		DealerID:           input.DealerID,
		Month:              input.Month,
		Type:               input.Type,
		Amount:             models.NewMoneyFromDecimal(amount),
		BonusTransactionID: input.BonusTransactionID,
		Remark:             input.Remark,
		CreatedAt:          time.Now(),
	}
	if err := repoTx.CreateIncome(txn); err != nil {
		return nil, err
	}
	return txn, nil
}

// Snapshot 账本快照读模型
type LedgerSnapshot struct {
	DealerID         uint         `json:"dealer_id"`
	CurrentBalance   models.Money `json:"current_balance"`
	FrozenBalance    models.Money `json:"frozen_balance"`
	AvailableBalance models.Money `json:"available_balance"`
	TotalWithdrawn   models.Money `json:"total_withdrawn"`
	TotalEarned      models.Money `json:"total_earned"`
}

// Snapshot 经销商账本快照
func (s *LedgerService) Snapshot(dealerID uint) (*LedgerSnapshot, error) {
	account, err := s.GetOrCreateAccount(dealerID)
	if err != nil {
		return nil, err
	}
	return &LedgerSnapshot{
		DealerID:         account.DealerID,
		CurrentBalance:   account.CurrentBalance,
		FrozenBalance:    account.FrozenBalance,
		AvailableBalance: account.AvailableBalance(),
		TotalWithdrawn:   account.TotalWithdrawn,
		TotalEarned:      account.TotalEarned,
	}, nil
}

// ListTransactions 分页查询经销商收入流水
func (s *LedgerService) ListTransactions(filter repository.IncomeListFilter) ([]models.IncomeTransaction, int64, error) {
	return s.ledgerRepo.ListIncome(filter)
}

// VerifyConservation 校验账本守恒：余额加累计提现等于累计入账，且可用余额非负
func (s *LedgerService) VerifyConservation(dealerID uint) error {
	account, err := s.ledgerRepo.GetAccountByDealerID(dealerID)
	if err != nil {
		return err
	}
	if account == nil {
		return nil
	}
	if !account.ConservationDelta().IsZero() {
		return ErrLedgerConservation
	}
	if account.AvailableBalance().Decimal.IsNegative() {
		return ErrLedgerConservation
	}
	return nil
}

// VerifyAllConservation 全量守恒校验，返回违反守恒的经销商ID
func (s *LedgerService) VerifyAllConservation() ([]uint, error) {
	accounts, err := s.ledgerRepo.ListAccounts()
	if err != nil {
		return nil, err
	}
	violated := make([]uint, 0)
	for _, account := range accounts {
		if !account.ConservationDelta().IsZero() || account.AvailableBalance().Decimal.IsNegative() {
			violated = append(violated, account.DealerID)
		}
	}
	return violated, nil
}

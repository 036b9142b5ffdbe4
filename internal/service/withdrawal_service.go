package service

import (
	"strings"
	"time"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WithdrawalService 提现申请状态机服务
type WithdrawalService struct {
	cfg            *config.Config
	dealerRepo     repository.DealerRepository
	ledgerRepo     repository.LedgerRepository
	withdrawalRepo repository.WithdrawalRepository
	riskScorer     *RiskScorer
}

// NewWithdrawalService 创建提现服务
func NewWithdrawalService(
	cfg *config.Config,
	dealerRepo repository.DealerRepository,
	ledgerRepo repository.LedgerRepository,
	withdrawalRepo repository.WithdrawalRepository,
	riskScorer *RiskScorer,
) *WithdrawalService {
	return &WithdrawalService{
		cfg:            cfg,
		dealerRepo:     dealerRepo,
		ledgerRepo:     ledgerRepo,
		withdrawalRepo: withdrawalRepo,
		riskScorer:     riskScorer,
	}
}

// WithdrawalCreateInput 提现申请参数
type WithdrawalCreateInput struct {
	TransactionIDs []uint `json:"transaction_ids"`
	PaymentMethod  string `json:"payment_method"`
	PaymentDetails string `json:"payment_details"`
}

// Create 提交提现申请：锁定所选收入流水并冻结金额，单事务内完成。
// 任一流水已被占用即冲突失败（可重试），金额低于下限或超出可用余额拒绝。
func (s *WithdrawalService) Create(dealerID uint, input WithdrawalCreateInput) (*models.WithdrawalRequest, error) {
	if dealerID == 0 {
		return nil, ErrNotFound
	}
	dealer, err := s.dealerRepo.GetByID(dealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, ErrNotFound
	}
	if dealer.Status != constants.DealerStatusActive {
		return nil, ErrDealerDisabled
	}
	if len(input.TransactionIDs) == 0 {
		return nil, ErrBelowMinimumWithdrawal
	}

	risk, err := s.assessRisk(dealer, input.TransactionIDs)
	if err != nil {
		return nil, err
	}

	var createdID uint
	err = s.withdrawalRepo.Transaction(func(tx *gorm.DB) error {
		ledgerTx := s.ledgerRepo.WithTx(tx)

		txns, err := ledgerTx.ListIncomeByIDsForUpdate(dealerID, input.TransactionIDs)
		if err != nil {
			return err
		}
		if len(txns) != len(input.TransactionIDs) {
			return ErrNotFound
		}
		amount := decimal.Zero
		txnIDs := make([]uint, 0, len(txns))
		for _, txn := range txns {
			if txn.IsWithdrawn || txn.WithdrawalRequestID != nil {
				return ErrClaimConflict
			}
			amount = amount.Add(txn.Amount.Decimal)
			txnIDs = append(txnIDs, txn.ID)
		}
		amount = amount.Round(2)
		minAmount := decimal.NewFromFloat(s.cfg.Withdrawal.MinAmount)
		if amount.LessThan(minAmount) {
			return ErrBelowMinimumWithdrawal
		}

		account, err := ledgerTx.GetAccountByDealerIDForUpdate(dealerID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrInsufficientFunds
		}
		if amount.GreaterThan(account.AvailableBalance().Decimal) {
			return ErrInsufficientFunds
		}

		now := time.Now()
		req := &models.WithdrawalRequest{
			WithdrawalNo:   uuid.NewString(),
			DealerID:       dealerID,
			Amount:         models.NewMoneyFromDecimal(amount),
			Status:         constants.WithdrawalStatusPending,
			PaymentMethod:  strings.TrimSpace(input.PaymentMethod),
			PaymentDetails: strings.TrimSpace(input.PaymentDetails),
			RiskScore:      risk.Score,
			RiskFlags:      models.StringList(risk.Flags),
			RiskBand:       risk.Band,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.withdrawalRepo.WithTx(tx).Create(req); err != nil {
			return err
		}

		if err := ledgerTx.BatchUpdateIncome(txnIDs, map[string]interface{}{
			"is_withdrawn":          true,
			"withdrawal_request_id": req.ID,
		}); err != nil {
			return err
		}

		account.FrozenBalance = models.NewMoneyFromDecimal(account.FrozenBalance.Decimal.Add(amount).Round(2))
		account.UpdatedAt = now
		if err := ledgerTx.UpdateAccount(account); err != nil {
			return err
		}
		createdID = req.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("withdrawal_created", "dealer_id", dealerID, "withdrawal_id", createdID)
	return s.withdrawalRepo.GetByID(createdID)
}

// assessRisk 采集评分输入并计算风险评分
func (s *WithdrawalService) assessRisk(dealer *models.Dealer, txnIDs []uint) (RiskResult, error) {
	now := time.Now()
	accountAgeDays := int(now.Sub(dealer.JoinedAt).Hours() / 24)

	totalCount, err := s.withdrawalRepo.CountByDealerSince(dealer.ID, time.Time{})
	if err != nil {
		return RiskResult{}, err
	}
	count24h, err := s.withdrawalRepo.CountByDealerSince(dealer.ID, now.Add(-24*time.Hour))
	if err != nil {
		return RiskResult{}, err
	}
	countWeek, err := s.withdrawalRepo.CountByDealerSince(dealer.ID, now.Add(-7*24*time.Hour))
	if err != nil {
		return RiskResult{}, err
	}

	income, _, err := s.ledgerRepo.ListIncome(repository.IncomeListFilter{DealerID: dealer.ID})
	if err != nil {
		return RiskResult{}, err
	}
	types := make(map[string]bool, 3)
	selected := make(map[uint]bool, len(txnIDs))
	for _, id := range txnIDs {
		selected[id] = true
	}
	amount := decimal.Zero
	for _, txn := range income {
		types[txn.Type] = true
		if selected[txn.ID] {
			amount = amount.Add(txn.Amount.Decimal)
		}
	}

	account, err := s.ledgerRepo.GetAccountByDealerID(dealer.ID)
	if err != nil {
		return RiskResult{}, err
	}
	totalEarned := decimal.Zero
	totalWithdrawn := decimal.Zero
	if account != nil {
		totalEarned = account.TotalEarned.Decimal
		totalWithdrawn = account.TotalWithdrawn.Decimal
	}

	return s.riskScorer.Score(RiskInput{
		AccountAgeDays:   accountAgeDays,
		TotalWithdrawals: totalCount,
		CountLast24h:     count24h,
		CountLastWeek:    countWeek,
		IncomeTypeCount:  len(types),
		IncomeTxnCount:   int64(len(income)),
		Amount:           amount.Round(2),
		TotalWithdrawn:   totalWithdrawn,
		TotalEarned:      totalEarned,
	}), nil
}

// Approve 审批通过：pending → approved，余额不变
func (s *WithdrawalService) Approve(id, adminID uint) (*models.WithdrawalRequest, error) {
	return s.transition(id, func(req *models.WithdrawalRequest, tx *gorm.DB) error {
		if req.Status != constants.WithdrawalStatusPending {
			return ErrWithdrawalStatusInvalid
		}
		now := time.Now()
		req.Status = constants.WithdrawalStatusApproved
		req.ApprovedBy = &adminID
		req.ApprovedAt = &now
		return nil
	})
}

// Reject 驳回：pending → rejected，必须填写原因，释放流水并解冻金额
func (s *WithdrawalService) Reject(id, adminID uint, reason string) (*models.WithdrawalRequest, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectReasonRequired
	}
	return s.transition(id, func(req *models.WithdrawalRequest, tx *gorm.DB) error {
		if req.Status != constants.WithdrawalStatusPending {
			return ErrWithdrawalStatusInvalid
		}
		if err := s.unwindClaims(tx, req); err != nil {
			return err
		}
		now := time.Now()
		req.Status = constants.WithdrawalStatusRejected
		req.RejectedBy = &adminID
		req.RejectedAt = &now
		req.RejectReason = reason
		return nil
	})
}

// MarkProcessing 开始打款：approved → processing
func (s *WithdrawalService) MarkProcessing(id, adminID uint) (*models.WithdrawalRequest, error) {
	return s.transition(id, func(req *models.WithdrawalRequest, tx *gorm.DB) error {
		if req.Status != constants.WithdrawalStatusApproved {
			return ErrWithdrawalStatusInvalid
		}
		req.Status = constants.WithdrawalStatusProcessing
		return nil
	})
}

// Complete 打款完成：approved|processing → completed。
// 余额与冻结同步扣减，累计提现增加，守恒不变式保持。
func (s *WithdrawalService) Complete(id, adminID uint, receiptRef string) (*models.WithdrawalRequest, error) {
	return s.transition(id, func(req *models.WithdrawalRequest, tx *gorm.DB) error {
		if req.Status != constants.WithdrawalStatusApproved && req.Status != constants.WithdrawalStatusProcessing {
			return ErrWithdrawalStatusInvalid
		}
		ledgerTx := s.ledgerRepo.WithTx(tx)
		account, err := ledgerTx.GetAccountByDealerIDForUpdate(req.DealerID)
		if err != nil {
			return err
		}
		if account == nil {
			return ErrNotFound
		}
		amount := req.Amount.Decimal
		now := time.Now()
		account.CurrentBalance = models.NewMoneyFromDecimal(account.CurrentBalance.Decimal.Sub(amount).Round(2))
		account.FrozenBalance = models.NewMoneyFromDecimal(account.FrozenBalance.Decimal.Sub(amount).Round(2))
		account.TotalWithdrawn = models.NewMoneyFromDecimal(account.TotalWithdrawn.Decimal.Add(amount).Round(2))
		account.UpdatedAt = now
		if err := ledgerTx.UpdateAccount(account); err != nil {
			return err
		}
		req.Status = constants.WithdrawalStatusCompleted
		req.ReceiptRef = strings.TrimSpace(receiptRef)
		req.CompletedAt = &now
		return nil
	})
}

// Cancel 取消：pending|approved → cancelled，回退与驳回一致，无需原因。
// 经销商只能取消自己的申请，管理员不受限。
func (s *WithdrawalService) Cancel(id, actorID uint, isAdmin bool) (*models.WithdrawalRequest, error) {
	return s.transition(id, func(req *models.WithdrawalRequest, tx *gorm.DB) error {
		if !isAdmin && req.DealerID != actorID {
			return ErrNotFound
		}
		if req.Status != constants.WithdrawalStatusPending && req.Status != constants.WithdrawalStatusApproved {
			return ErrWithdrawalStatusInvalid
		}
		if err := s.unwindClaims(tx, req); err != nil {
			return err
		}
		now := time.Now()
		req.Status = constants.WithdrawalStatusCancelled
		req.CancelledAt = &now
		return nil
	})
}

// unwindClaims 释放被占用的收入流水并解冻对应金额
func (s *WithdrawalService) unwindClaims(tx *gorm.DB, req *models.WithdrawalRequest) error {
	ledgerTx := s.ledgerRepo.WithTx(tx)
	txns, err := ledgerTx.ListIncomeByWithdrawalForUpdate(req.ID)
	if err != nil {
		return err
	}
	ids := make([]uint, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	if err := ledgerTx.BatchUpdateIncome(ids, map[string]interface{}{
		"is_withdrawn":          false,
		"withdrawal_request_id": nil,
	}); err != nil {
		return err
	}
	account, err := ledgerTx.GetAccountByDealerIDForUpdate(req.DealerID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrNotFound
	}
	account.FrozenBalance = models.NewMoneyFromDecimal(account.FrozenBalance.Decimal.Sub(req.Amount.Decimal).Round(2))
	account.UpdatedAt = time.Now()
	return ledgerTx.UpdateAccount(account)
}

// transition 提现状态流转骨架：行锁取申请、执行变更、保存
func (s *WithdrawalService) transition(id uint, fn func(req *models.WithdrawalRequest, tx *gorm.DB) error) (*models.WithdrawalRequest, error) {
	if id == 0 {
		return nil, ErrNotFound
	}
	err := s.withdrawalRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.withdrawalRepo.WithTx(tx)
		req, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if req == nil {
			return ErrNotFound
		}
		if err := fn(req, tx); err != nil {
			return err
		}
		req.UpdatedAt = time.Now()
		return repoTx.Update(req)
	})
	if err != nil {
		return nil, err
	}
	return s.withdrawalRepo.GetByID(id)
}

// GetByID 查询提现申请
func (s *WithdrawalService) GetByID(id uint) (*models.WithdrawalRequest, error) {
	req, err := s.withdrawalRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound
	}
	return req, nil
}

// List 分页查询提现申请
func (s *WithdrawalService) List(filter repository.WithdrawalListFilter) ([]models.WithdrawalRequest, int64, error) {
	return s.withdrawalRepo.List(filter)
}

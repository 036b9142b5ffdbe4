package service

import (
	"errors"
	"testing"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func withdrawalTestConfig() *config.Config {
	return &config.Config{
		Withdrawal: config.WithdrawalConfig{MinAmount: 20000},
		Risk: config.RiskConfig{
			NewAccountDays:           30,
			LargeAmount:              100000,
			Frequent24hCount:         2,
			FrequentWeekCount:        5,
			LowIncomeTxnCount:        3,
			HighWithdrawRatio:        0.8,
			WeightNewAccount:         15,
			WeightFirstWithdrawal:    10,
			WeightLargeWithdrawal:    20,
			WeightFrequent24h:        15,
			WeightFrequentWeek:       10,
			WeightSingleIncomeSource: 10,
			WeightLowIncomeActivity:  10,
			WeightWithdrawPercent:    20,
			MediumThreshold:          40,
			HighThreshold:            70,
		},
	}
}

func newTestWithdrawalService(t *testing.T, db *gorm.DB, cfg *config.Config) (*WithdrawalService, *LedgerService) {
	t.Helper()
	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerService := NewLedgerService(ledgerRepo)
	svc := NewWithdrawalService(
		cfg,
		repository.NewDealerRepository(db),
		ledgerRepo,
		repository.NewWithdrawalRepository(db),
		NewRiskScorer(cfg),
	)
	return svc, ledgerService
}

func loadAccount(t *testing.T, db *gorm.DB, dealerID uint) *models.LedgerAccount {
	t.Helper()
	account, err := repository.NewLedgerRepository(db).GetAccountByDealerID(dealerID)
	if err != nil {
		t.Fatalf("load account failed: %v", err)
	}
	return account
}

func TestWithdrawalCreateBelowMinimum(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_min_test")
	createTestDealer(t, db, 1, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())

	txn := creditIncome(t, db, ledgerService, 1, 15000, constants.IncomeTypeOrderBonus)
	_, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}})
	if !errors.Is(err, ErrBelowMinimumWithdrawal) {
		t.Fatalf("15000 below 20000 floor must fail, got: %v", err)
	}
	// 失败不留痕：流水未占用、余额未冻结
	account := loadAccount(t, db, 1)
	if !account.FrozenBalance.Decimal.IsZero() {
		t.Fatalf("failed create must not freeze: %+v", account)
	}
	var reloaded models.IncomeTransaction
	if err := db.First(&reloaded, txn.ID).Error; err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloaded.IsWithdrawn || reloaded.WithdrawalRequestID != nil {
		t.Fatalf("failed create must not claim txn: %+v", reloaded)
	}

	if _, err := svc.Create(1, WithdrawalCreateInput{}); !errors.Is(err, ErrBelowMinimumWithdrawal) {
		t.Fatalf("empty selection must fail, got: %v", err)
	}
}

func TestWithdrawalCreateClaimsAndFreezes(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_create_test")
	createTestDealer(t, db, 1, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())

	first := creditIncome(t, db, ledgerService, 1, 12000, constants.IncomeTypeOrderBonus)
	second := creditIncome(t, db, ledgerService, 1, 9000, constants.IncomeTypeDifferentialBonus)

	req, err := svc.Create(1, WithdrawalCreateInput{
		TransactionIDs: []uint{first.ID, second.ID},
		PaymentMethod:  "bank_transfer",
		PaymentDetails: "6222....1234",
	})
	if err != nil {
		t.Fatalf("create withdrawal failed: %v", err)
	}
	if req.Status != constants.WithdrawalStatusPending || req.WithdrawalNo == "" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if !req.Amount.Decimal.Equal(decimal.NewFromInt(21000)) {
		t.Fatalf("unexpected claimed amount: %s", req.Amount.String())
	}
	if req.RiskBand == "" || len(req.RiskFlags) == 0 {
		t.Fatalf("risk assessment missing: %+v", req)
	}

	account := loadAccount(t, db, 1)
	if !account.FrozenBalance.Decimal.Equal(decimal.NewFromInt(21000)) ||
		!account.AvailableBalance().Decimal.IsZero() {
		t.Fatalf("freeze not applied: %+v", account)
	}
	var claimed []models.IncomeTransaction
	if err := db.Where("withdrawal_request_id = ?", req.ID).Find(&claimed).Error; err != nil {
		t.Fatalf("load claimed txns failed: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("unexpected claimed txns: %+v", claimed)
	}
	for _, txn := range claimed {
		if !txn.IsWithdrawn {
			t.Fatalf("claimed txn not marked: %+v", txn)
		}
	}

	// 已占用流水再次申请必须冲突
	if _, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{first.ID}}); !errors.Is(err, ErrClaimConflict) {
		t.Fatalf("expected claim conflict, got: %v", err)
	}
}

func TestWithdrawalCreateRejectsDisabledDealerAndMissingTxns(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_guard_test")
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())
	txn := creditIncome(t, db, ledgerService, 1, 25000, constants.IncomeTypeOrderBonus)

	if err := db.Model(&models.Dealer{}).Where("id = ?", 1).
		Update("status", constants.DealerStatusDisabled).Error; err != nil {
		t.Fatalf("disable dealer failed: %v", err)
	}
	if _, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}}); !errors.Is(err, ErrDealerDisabled) {
		t.Fatalf("disabled dealer must fail, got: %v", err)
	}

	// 选到别人的流水按不存在处理
	if _, err := svc.Create(2, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign txn must fail, got: %v", err)
	}
}

func TestWithdrawalCreateInsufficientWithoutAccount(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_insufficient_test")
	createTestDealer(t, db, 1, nil)
	svc, _ := newTestWithdrawalService(t, db, withdrawalTestConfig())

	// 流水存在但账本账户缺失（外部导入的脏数据）
	txn := models.IncomeTransaction{
		DealerID: 1,
		Month:    CurrentMonth(),
		Type:     constants.IncomeTypeOrderBonus,
		Amount:   models.NewMoneyFromFloat(30000),
	}
	if err := db.Create(&txn).Error; err != nil {
		t.Fatalf("create income failed: %v", err)
	}
	if _, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}}); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("missing account must fail, got: %v", err)
	}
}

func TestWithdrawalRejectUnwindsClaims(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_reject_test")
	createTestDealer(t, db, 1, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())
	txn := creditIncome(t, db, ledgerService, 1, 25000, constants.IncomeTypeOrderBonus)

	req, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Reject(req.ID, 9, "   "); !errors.Is(err, ErrRejectReasonRequired) {
		t.Fatalf("blank reason must fail, got: %v", err)
	}

	rejected, err := svc.Reject(req.ID, 9, "收款信息有误")
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.WithdrawalStatusRejected || rejected.RejectReason == "" ||
		rejected.RejectedBy == nil || *rejected.RejectedBy != 9 {
		t.Fatalf("unexpected rejected request: %+v", rejected)
	}

	// 流水释放、冻结解除、守恒保持
	var reloaded models.IncomeTransaction
	if err := db.First(&reloaded, txn.ID).Error; err != nil {
		t.Fatalf("reload txn failed: %v", err)
	}
	if reloaded.IsWithdrawn || reloaded.WithdrawalRequestID != nil {
		t.Fatalf("reject must release claim: %+v", reloaded)
	}
	account := loadAccount(t, db, 1)
	if !account.FrozenBalance.Decimal.IsZero() ||
		!account.AvailableBalance().Decimal.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("reject must unfreeze: %+v", account)
	}
	if err := ledgerService.VerifyConservation(1); err != nil {
		t.Fatalf("conservation broken after reject: %v", err)
	}

	// 终态后不允许再流转
	if _, err := svc.Approve(req.ID, 9); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("rejected request must not approve, got: %v", err)
	}
}

func TestWithdrawalCancelOwnershipAndUnwind(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_cancel_test")
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())
	txn := creditIncome(t, db, ledgerService, 1, 25000, constants.IncomeTypeOrderBonus)

	req, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// 他人不能取消，按不存在处理
	if _, err := svc.Cancel(req.ID, 2, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign cancel must fail, got: %v", err)
	}

	cancelled, err := svc.Cancel(req.ID, 1, false)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.WithdrawalStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("unexpected cancelled request: %+v", cancelled)
	}
	account := loadAccount(t, db, 1)
	if !account.FrozenBalance.Decimal.IsZero() {
		t.Fatalf("cancel must unfreeze: %+v", account)
	}

	// 释放后的流水可以重新申请
	if _, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn.ID}}); err != nil {
		t.Fatalf("re-claim after cancel failed: %v", err)
	}
}

func TestWithdrawalCompleteLifecycle(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_complete_test")
	createTestDealer(t, db, 1, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())
	first := creditIncome(t, db, ledgerService, 1, 18000, constants.IncomeTypeOrderBonus)
	second := creditIncome(t, db, ledgerService, 1, 7000, constants.IncomeTypeSubscriptionBonus)

	req, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{first.ID, second.ID}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// pending 不能直接完成
	if _, err := svc.Complete(req.ID, 9, ""); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("pending must not complete, got: %v", err)
	}
	if _, err := svc.MarkProcessing(req.ID, 9); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("pending must not mark processing, got: %v", err)
	}

	approved, err := svc.Approve(req.ID, 9)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.WithdrawalStatusApproved || approved.ApprovedBy == nil {
		t.Fatalf("unexpected approved request: %+v", approved)
	}
	// 审批不动余额
	account := loadAccount(t, db, 1)
	if !account.CurrentBalance.Decimal.Equal(decimal.NewFromInt(25000)) ||
		!account.FrozenBalance.Decimal.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("approve must not move balances: %+v", account)
	}

	if _, err := svc.MarkProcessing(req.ID, 9); err != nil {
		t.Fatalf("mark processing failed: %v", err)
	}

	completed, err := svc.Complete(req.ID, 9, "PAYOUT-2024-001")
	if err != nil {
		t.Fatalf("complete failed: %v", err)
	}
	if completed.Status != constants.WithdrawalStatusCompleted ||
		completed.ReceiptRef != "PAYOUT-2024-001" || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed request: %+v", completed)
	}

	account = loadAccount(t, db, 1)
	if !account.CurrentBalance.Decimal.IsZero() ||
		!account.FrozenBalance.Decimal.IsZero() ||
		!account.TotalWithdrawn.Decimal.Equal(decimal.NewFromInt(25000)) ||
		!account.TotalEarned.Decimal.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("complete must settle balances: %+v", account)
	}
	if err := ledgerService.VerifyConservation(1); err != nil {
		t.Fatalf("conservation broken after complete: %v", err)
	}

	// 终态不可重复完成
	if _, err := svc.Complete(req.ID, 9, ""); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("double complete must fail, got: %v", err)
	}
}

func TestWithdrawalListFilters(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_list_test")
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())

	txn1 := creditIncome(t, db, ledgerService, 1, 25000, constants.IncomeTypeOrderBonus)
	txn2 := creditIncome(t, db, ledgerService, 2, 30000, constants.IncomeTypeOrderBonus)
	if _, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{txn1.ID}}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	req2, err := svc.Create(2, WithdrawalCreateInput{TransactionIDs: []uint{txn2.ID}})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.Cancel(req2.ID, 2, false); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	pending, total, err := svc.List(repository.WithdrawalListFilter{Status: constants.WithdrawalStatusPending})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(pending) != 1 || pending[0].DealerID != 1 {
		t.Fatalf("unexpected pending list: total=%d %+v", total, pending)
	}

	mine, total, err := svc.List(repository.WithdrawalListFilter{DealerID: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || mine[0].Status != constants.WithdrawalStatusCancelled {
		t.Fatalf("unexpected dealer list: %+v", mine)
	}
}

func TestWithdrawalRiskReflectsCumulativeWithdrawn(t *testing.T) {
	db := openServiceTestDB(t, "withdrawal_risk_history_test")
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, nil)
	svc, ledgerService := newTestWithdrawalService(t, db, withdrawalTestConfig())

	// 两个经销商画像一致（收入笔数、类型、历史申请数相同），仅已提总额占比不同
	completeWithdrawal := func(dealerID uint, txnIDs []uint, receipt string) {
		t.Helper()
		req, err := svc.Create(dealerID, WithdrawalCreateInput{TransactionIDs: txnIDs})
		if err != nil {
			t.Fatalf("create withdrawal failed: %v", err)
		}
		if _, err := svc.Approve(req.ID, 9); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		if _, err := svc.MarkProcessing(req.ID, 9); err != nil {
			t.Fatalf("mark processing failed: %v", err)
		}
		if _, err := svc.Complete(req.ID, 9, receipt); err != nil {
			t.Fatalf("complete failed: %v", err)
		}
	}

	// 经销商1：累计收入 50000，提空一半后再申请剩余一半（占比 100%）
	d1a := creditIncome(t, db, ledgerService, 1, 12500, constants.IncomeTypeOrderBonus)
	d1b := creditIncome(t, db, ledgerService, 1, 12500, constants.IncomeTypeOrderBonus)
	d1c := creditIncome(t, db, ledgerService, 1, 12500, constants.IncomeTypeOrderBonus)
	d1d := creditIncome(t, db, ledgerService, 1, 12500, constants.IncomeTypeOrderBonus)
	completeWithdrawal(1, []uint{d1a.ID, d1b.ID}, "PAYOUT-HIST-001")
	repeat, err := svc.Create(1, WithdrawalCreateInput{TransactionIDs: []uint{d1c.ID, d1d.ID}})
	if err != nil {
		t.Fatalf("create repeat withdrawal failed: %v", err)
	}

	// 经销商2：累计收入 100000，同样已提 25000 后再申请 25000（占比 50%）
	d2a := creditIncome(t, db, ledgerService, 2, 25000, constants.IncomeTypeOrderBonus)
	d2b := creditIncome(t, db, ledgerService, 2, 25000, constants.IncomeTypeOrderBonus)
	creditIncome(t, db, ledgerService, 2, 25000, constants.IncomeTypeOrderBonus)
	creditIncome(t, db, ledgerService, 2, 25000, constants.IncomeTypeOrderBonus)
	completeWithdrawal(2, []uint{d2a.ID}, "PAYOUT-HIST-002")
	lowRatio, err := svc.Create(2, WithdrawalCreateInput{TransactionIDs: []uint{d2b.ID}})
	if err != nil {
		t.Fatalf("create low-ratio withdrawal failed: %v", err)
	}

	// 已提 25000 + 本次 25000 占累计 50000 的 100%，必须高于低占比者并命中高占比标记
	if repeat.RiskScore <= lowRatio.RiskScore {
		t.Fatalf("withdrawn history must raise risk: repeat=%d other=%d", repeat.RiskScore, lowRatio.RiskScore)
	}
	found := false
	for _, flag := range repeat.RiskFlags {
		if flag == constants.RiskFlagHighWithdrawPercent {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected high-ratio flag, got: %v", repeat.RiskFlags)
	}
	for _, flag := range lowRatio.RiskFlags {
		if flag == constants.RiskFlagHighWithdrawPercent {
			t.Fatalf("low ratio must not hit high-ratio flag: %v", lowRatio.RiskFlags)
		}
	}
}

package service

import (
	"errors"
	"testing"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// creditIncome 在单独事务内给经销商入账一笔收入流水
func creditIncome(t *testing.T, db *gorm.DB, svc *LedgerService, dealerID uint, amount float64, incomeType string) *models.IncomeTransaction {
	t.Helper()
	var txn *models.IncomeTransaction
	err := repository.NewLedgerRepository(db).Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = svc.Credit(tx, CreditInput{
			DealerID: dealerID,
			Month:    CurrentMonth(),
			Type:     incomeType,
			Amount:   decimal.NewFromFloat(amount),
			Remark:   "测试入账",
		})
		return err
	})
	if err != nil {
		t.Fatalf("credit income failed: %v", err)
	}
	return txn
}

func TestLedgerCreditCreatesAccountAndTransaction(t *testing.T) {
	db := openServiceTestDB(t, "ledger_credit_test")
	createTestDealer(t, db, 1, nil)
	svc := NewLedgerService(repository.NewLedgerRepository(db))

	txn := creditIncome(t, db, svc, 1, 120.505, constants.IncomeTypeOrderBonus)
	if txn == nil {
		t.Fatalf("credit returned nil transaction")
	}
	// 入账金额四舍五入到分
	if !txn.Amount.Decimal.Equal(decimal.NewFromFloat(120.51)) {
		t.Fatalf("unexpected rounded amount: %s", txn.Amount.String())
	}

	snapshot, err := svc.Snapshot(1)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if !snapshot.CurrentBalance.Decimal.Equal(decimal.NewFromFloat(120.51)) ||
		!snapshot.TotalEarned.Decimal.Equal(decimal.NewFromFloat(120.51)) ||
		!snapshot.FrozenBalance.Decimal.IsZero() {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}
	if !snapshot.AvailableBalance.Decimal.Equal(snapshot.CurrentBalance.Decimal) {
		t.Fatalf("available must equal current without freeze: %+v", snapshot)
	}
	if err := svc.VerifyConservation(1); err != nil {
		t.Fatalf("conservation broken after credit: %v", err)
	}
}

func TestLedgerCreditIgnoresNonPositiveAmount(t *testing.T) {
	db := openServiceTestDB(t, "ledger_zero_test")
	createTestDealer(t, db, 1, nil)
	svc := NewLedgerService(repository.NewLedgerRepository(db))

	err := repository.NewLedgerRepository(db).Transaction(func(tx *gorm.DB) error {
		txn, err := svc.Credit(tx, CreditInput{DealerID: 1, Amount: decimal.Zero})
		if err != nil {
			return err
		}
		if txn != nil {
			t.Fatalf("zero credit must be a no-op: %+v", txn)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
	var count int64
	if err := db.Model(&models.IncomeTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count income failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no-op credit left rows behind: %d", count)
	}
}

func TestLedgerVerifyConservationDetectsDrift(t *testing.T) {
	db := openServiceTestDB(t, "ledger_drift_test")
	createTestDealer(t, db, 1, nil)
	createTestDealer(t, db, 2, nil)
	svc := NewLedgerService(repository.NewLedgerRepository(db))

	creditIncome(t, db, svc, 1, 1000, constants.IncomeTypeOrderBonus)
	creditIncome(t, db, svc, 2, 500, constants.IncomeTypeDifferentialBonus)

	// 绕过账本入口直接改余额，守恒校验必须发现
	if err := db.Model(&models.LedgerAccount{}).
		Where("dealer_id = ?", 2).
		Update("current_balance", 9999).Error; err != nil {
		t.Fatalf("tamper balance failed: %v", err)
	}

	if err := svc.VerifyConservation(1); err != nil {
		t.Fatalf("intact account flagged: %v", err)
	}
	if err := svc.VerifyConservation(2); !errors.Is(err, ErrLedgerConservation) {
		t.Fatalf("tampered account not flagged: %v", err)
	}

	broken, err := svc.VerifyAllConservation()
	if err != nil {
		t.Fatalf("verify all failed: %v", err)
	}
	if len(broken) != 1 || broken[0] != 2 {
		t.Fatalf("unexpected broken accounts: %v", broken)
	}
}

func TestLedgerVerifyConservationFlagsNegativeAvailable(t *testing.T) {
	db := openServiceTestDB(t, "ledger_negative_test")
	createTestDealer(t, db, 1, nil)
	svc := NewLedgerService(repository.NewLedgerRepository(db))
	creditIncome(t, db, svc, 1, 100, constants.IncomeTypeOrderBonus)

	// 冻结超过余额：守恒等式仍成立但可用余额为负
	if err := db.Model(&models.LedgerAccount{}).
		Where("dealer_id = ?", 1).
		Update("frozen_balance", 200).Error; err != nil {
		t.Fatalf("tamper frozen failed: %v", err)
	}
	if err := svc.VerifyConservation(1); !errors.Is(err, ErrLedgerConservation) {
		t.Fatalf("negative available not flagged: %v", err)
	}
}

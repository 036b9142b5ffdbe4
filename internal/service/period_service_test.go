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

func newTestPeriodService(t *testing.T, db *gorm.DB) *PeriodService {
	t.Helper()
	tierService := newTestTierService(t, db)
	turnoverService := NewTurnoverService(
		repository.NewDealerRepository(db),
		repository.NewOrderRepository(db),
		repository.NewTurnoverRepository(db),
		repository.NewPeriodRepository(db),
		tierService,
	)
	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerService := NewLedgerService(ledgerRepo)
	commissionService := NewCommissionService(
		&config.Config{},
		repository.NewDealerRepository(db),
		repository.NewOrderRepository(db),
		turnoverService,
		tierService,
		ledgerService,
		ledgerRepo,
	)
	auditService := NewAuditService(repository.NewTurnoverRepository(db), turnoverService)
	return NewPeriodService(
		repository.NewPeriodRepository(db),
		repository.NewTurnoverRepository(db),
		repository.NewBonusRepository(db),
		repository.NewOrderRepository(db),
		turnoverService,
		commissionService,
		auditService,
		ledgerService,
	)
}

func TestPeriodFinalizeRejectsCurrentMonth(t *testing.T) {
	db := openServiceTestDB(t, "period_current_test")
	seedStandardTiers(t, db)
	svc := newTestPeriodService(t, db)

	if _, err := svc.Finalize(CurrentMonth(), 1); !errors.Is(err, ErrPeriodIsCurrent) {
		t.Fatalf("current month must not finalize, got: %v", err)
	}
	if _, err := svc.Finalize("bad-month", 1); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("invalid month must be rejected, got: %v", err)
	}
}

func TestPeriodFinalizeRejectsEmptyMonth(t *testing.T) {
	db := openServiceTestDB(t, "period_empty_test")
	seedStandardTiers(t, db)
	svc := newTestPeriodService(t, db)

	if _, err := svc.Finalize(pastMonth(), 1); !errors.Is(err, ErrPeriodNoData) {
		t.Fatalf("month without orders must not finalize, got: %v", err)
	}
}

func TestPeriodFinalizeHappyPath(t *testing.T) {
	db := openServiceTestDB(t, "period_finalize_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)
	svc := newTestPeriodService(t, db)

	period, err := svc.Finalize(month, 9)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if period.Status != constants.PeriodStatusFinalized {
		t.Fatalf("unexpected period status: %s", period.Status)
	}
	if period.BonusCount != 6 || !period.BonusTotal.Decimal.Equal(decimal.NewFromInt(71000)) {
		t.Fatalf("unexpected finalize summary: count=%d total=%s", period.BonusCount, period.BonusTotal.String())
	}
	if period.FinalizedBy == nil || *period.FinalizedBy != 9 || period.FinalizedAt == nil {
		t.Fatalf("finalize actor not recorded: %+v", period)
	}

	// 业绩记录固化并标记封账
	var records []models.TurnoverRecord
	if err := db.Where("month = ?", month).Find(&records).Error; err != nil {
		t.Fatalf("load turnover records failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("unexpected stored record count: %d", len(records))
	}
	for _, record := range records {
		if !record.IsFinal {
			t.Fatalf("turnover record not marked final: %+v", record)
		}
	}

	// 封账后业绩拒绝重算
	if _, err := newTestTurnoverService(t, db).RecomputeMonth(month); !errors.Is(err, ErrPeriodFinalized) {
		t.Fatalf("finalized month must reject recompute, got: %v", err)
	}
	// 重复封账拒绝
	if _, err := svc.Finalize(month, 9); !errors.Is(err, ErrPeriodAlreadyFinalized) {
		t.Fatalf("double finalize must fail, got: %v", err)
	}

	status, err := svc.Status(month)
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.IsFinalized || status.IsPaid || !status.HasData {
		t.Fatalf("unexpected status view: %+v", status)
	}
}

func TestPeriodFinalizeAbortsOnAuditMismatch(t *testing.T) {
	db := openServiceTestDB(t, "period_mismatch_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)
	svc := newTestPeriodService(t, db)

	if _, err := newTestTurnoverService(t, db).RecomputeMonth(month); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	// 篡改存量业绩，封账必须带差异失败
	if err := db.Model(&models.TurnoverRecord{}).
		Where("month = ? AND dealer_id = ?", month, 2).
		Update("team_turnover", 999999).Error; err != nil {
		t.Fatalf("tamper record failed: %v", err)
	}

	_, err := svc.Finalize(month, 1)
	mismatch, ok := AsAuditMismatch(err)
	if !ok {
		t.Fatalf("expected audit mismatch, got: %v", err)
	}
	if mismatch.Month != month || len(mismatch.Issues) == 0 {
		t.Fatalf("mismatch must carry issues: %+v", mismatch)
	}
	found := false
	for _, issue := range mismatch.Issues {
		if issue.DealerID == 2 && issue.CheckType == constants.AuditCheckTeamTurnover {
			found = true
		}
	}
	if !found {
		t.Fatalf("tampered field not reported: %+v", mismatch.Issues)
	}

	// 封账被拦截，周期保持 open
	var period models.SettlementPeriod
	if err := db.Where("month = ?", month).First(&period).Error; err != nil {
		t.Fatalf("load period failed: %v", err)
	}
	if period.Status != constants.PeriodStatusOpen {
		t.Fatalf("aborted finalize must leave period open: %s", period.Status)
	}
}

func TestPeriodPayCreditsLedger(t *testing.T) {
	db := openServiceTestDB(t, "period_pay_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)
	svc := newTestPeriodService(t, db)

	// 未封账不能发放
	if _, err := svc.Pay(month, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pay without period must fail, got: %v", err)
	}
	if _, err := svc.Finalize(month, 1); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	period, err := svc.Pay(month, 7)
	if err != nil {
		t.Fatalf("pay failed: %v", err)
	}
	if period.Status != constants.PeriodStatusPaid || period.PaidBy == nil || *period.PaidBy != 7 {
		t.Fatalf("unexpected paid period: %+v", period)
	}

	ledgerRepo := repository.NewLedgerRepository(db)
	ledgerService := NewLedgerService(ledgerRepo)

	// A = 50500 本人 + 6000 + 150 级差，B = 14000 + 150，C = 200
	expect := map[uint]decimal.Decimal{
		1: decimal.NewFromInt(56650),
		2: decimal.NewFromInt(14150),
		3: decimal.NewFromInt(200),
	}
	for dealerID, want := range expect {
		account, err := ledgerRepo.GetAccountByDealerID(dealerID)
		if err != nil {
			t.Fatalf("load account failed: %v", err)
		}
		if account == nil || !account.CurrentBalance.Decimal.Equal(want) {
			t.Fatalf("dealer %d expected %s, got: %+v", dealerID, want.String(), account)
		}
		if !account.TotalEarned.Decimal.Equal(want) {
			t.Fatalf("dealer %d total earned mismatch: %+v", dealerID, account)
		}
		if err := ledgerService.VerifyConservation(dealerID); err != nil {
			t.Fatalf("conservation broken for dealer %d: %v", dealerID, err)
		}
	}

	// 收入流水类型与奖金类型一一对应
	personal, _, err := ledgerRepo.ListIncome(repository.IncomeListFilter{DealerID: 3, Type: constants.IncomeTypeOrderBonus})
	if err != nil {
		t.Fatalf("list income failed: %v", err)
	}
	if len(personal) != 1 || personal[0].BonusTransactionID == nil {
		t.Fatalf("personal bonus income missing link: %+v", personal)
	}
	differential, _, err := ledgerRepo.ListIncome(repository.IncomeListFilter{DealerID: 1, Type: constants.IncomeTypeDifferentialBonus})
	if err != nil {
		t.Fatalf("list income failed: %v", err)
	}
	if len(differential) != 2 {
		t.Fatalf("unexpected differential income count: %d", len(differential))
	}

	// 重复发放拒绝
	if _, err := svc.Pay(month, 7); !errors.Is(err, ErrPeriodAlreadyPaid) {
		t.Fatalf("double pay must fail, got: %v", err)
	}
}

func TestPeriodPreviewRejectsFinalizedAndEmptyMonth(t *testing.T) {
	db := openServiceTestDB(t, "period_preview_guard_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)
	svc := newTestPeriodService(t, db)

	if _, err := svc.Preview("no-month"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("invalid month must be rejected, got: %v", err)
	}
	// 无订单数据的月份没有可试算内容
	if _, err := svc.Preview("2020-01"); !errors.Is(err, ErrPeriodNoData) {
		t.Fatalf("empty month must not preview, got: %v", err)
	}

	if _, err := svc.Finalize(month, 1); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	// 封账后以固化明细为准，不允许再试算
	if _, err := svc.Preview(month); !errors.Is(err, ErrPeriodAlreadyFinalized) {
		t.Fatalf("finalized month must not preview, got: %v", err)
	}
}

func TestPeriodPreviewDoesNotPersist(t *testing.T) {
	db := openServiceTestDB(t, "period_preview_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)
	svc := newTestPeriodService(t, db)

	result, err := svc.Preview(month)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if result.BonusCount != 6 {
		t.Fatalf("unexpected preview count: %d", result.BonusCount)
	}

	var bonusCount, accountCount int64
	if err := db.Model(&models.BonusTransaction{}).Count(&bonusCount).Error; err != nil {
		t.Fatalf("count bonuses failed: %v", err)
	}
	if err := db.Model(&models.LedgerAccount{}).Count(&accountCount).Error; err != nil {
		t.Fatalf("count accounts failed: %v", err)
	}
	if bonusCount != 0 || accountCount != 0 {
		t.Fatalf("preview must not persist: bonuses=%d accounts=%d", bonusCount, accountCount)
	}
}

func TestPeriodEnsureOpenPeriodIdempotent(t *testing.T) {
	db := openServiceTestDB(t, "period_ensure_test")
	seedStandardTiers(t, db)
	svc := newTestPeriodService(t, db)

	month := CurrentMonth()
	if err := svc.EnsureOpenPeriod(month); err != nil {
		t.Fatalf("ensure open period failed: %v", err)
	}
	if err := svc.EnsureOpenPeriod(month); err != nil {
		t.Fatalf("ensure open period not idempotent: %v", err)
	}
	var count int64
	if err := db.Model(&models.SettlementPeriod{}).Where("month = ?", month).Count(&count).Error; err != nil {
		t.Fatalf("count periods failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("unexpected period rows: %d", count)
	}
}

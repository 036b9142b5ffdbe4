package service

import (
	"testing"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"gorm.io/gorm"
)

func newTestAuditService(t *testing.T, db *gorm.DB) *AuditService {
	t.Helper()
	return NewAuditService(repository.NewTurnoverRepository(db), newTestTurnoverService(t, db))
}

func TestAuditReconcileCleanMonth(t *testing.T) {
	db := openServiceTestDB(t, "audit_clean_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	if _, err := newTestTurnoverService(t, db).RecomputeMonth(month); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	issues, err := newTestAuditService(t, db).ReconcileMonth(month)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("clean month must have no issues: %+v", issues)
	}
}

func TestAuditReconcileDetectsTamperedTurnover(t *testing.T) {
	db := openServiceTestDB(t, "audit_tamper_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	if _, err := newTestTurnoverService(t, db).RecomputeMonth(month); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if err := db.Model(&models.TurnoverRecord{}).
		Where("month = ? AND dealer_id = ?", month, 1).
		Update("personal_turnover", 1).Error; err != nil {
		t.Fatalf("tamper record failed: %v", err)
	}

	issues, err := newTestAuditService(t, db).ReconcileMonth(month)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("expected single issue: %+v", issues)
	}
	issue := issues[0]
	if issue.DealerID != 1 || issue.CheckType != constants.AuditCheckPersonalTurnover {
		t.Fatalf("unexpected issue: %+v", issue)
	}
	if issue.StoredValue == issue.CalculatedValue || issue.Difference == "" {
		t.Fatalf("issue must carry both values and difference: %+v", issue)
	}
}

func TestAuditReconcileDetectsMissingAndOrphanRecords(t *testing.T) {
	db := openServiceTestDB(t, "audit_missing_test")
	seedStandardTiers(t, db)
	month := pastMonth()
	seedThreeLevelChain(t, db, month)

	if _, err := newTestTurnoverService(t, db).RecomputeMonth(month); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	// 删掉一条存量记录，再塞入一条没有业绩来源的孤儿记录
	if err := db.Where("month = ? AND dealer_id = ?", month, 3).
		Delete(&models.TurnoverRecord{}).Error; err != nil {
		t.Fatalf("delete record failed: %v", err)
	}
	createTestDealer(t, db, 44, nil)
	orphan := models.TurnoverRecord{
		DealerID:      44,
		Month:         month,
		TotalTurnover: models.NewMoneyFromFloat(5000),
		TierID:        1,
		TierName:      "铜牌",
	}
	if err := db.Create(&orphan).Error; err != nil {
		t.Fatalf("create orphan record failed: %v", err)
	}

	issues, err := newTestAuditService(t, db).ReconcileMonth(month)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	var hasMissing, hasOrphan bool
	for _, issue := range issues {
		if issue.DealerID == 3 && issue.CheckType == constants.AuditCheckMissingRecord {
			hasMissing = true
		}
		if issue.DealerID == 44 && issue.CheckType == constants.AuditCheckOrphanRecord {
			hasOrphan = true
		}
	}
	if !hasMissing || !hasOrphan {
		t.Fatalf("missing/orphan not detected: %+v", issues)
	}
}

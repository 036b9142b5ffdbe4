package service

import (
	"sort"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"
)

// AuditIssue 对账差异明细
type AuditIssue struct {
	RecordID        uint   `json:"record_id"`
	DealerID        uint   `json:"dealer_id"`
	CheckType       string `json:"check_type"`
	StoredValue     string `json:"stored_value"`
	CalculatedValue string `json:"calculated_value"`
	Difference      string `json:"difference"`
}

// AuditService 封账前对账服务，重算全量业绩并与存量记录逐字段比对
type AuditService struct {
	turnoverRepo    repository.TurnoverRepository
	turnoverService *TurnoverService
}

// NewAuditService 创建对账服务
func NewAuditService(turnoverRepo repository.TurnoverRepository, turnoverService *TurnoverService) *AuditService {
	return &AuditService{
		turnoverRepo:    turnoverRepo,
		turnoverService: turnoverService,
	}
}

// ReconcileMonth 重算当月业绩并比对存量记录，返回全部差异
func (s *AuditService) ReconcileMonth(month string) ([]AuditIssue, error) {
	stored, err := s.turnoverRepo.ListByMonth(month)
	if err != nil {
		return nil, err
	}
	calculated, err := s.turnoverService.ComputeMonth(month)
	if err != nil {
		return nil, err
	}
	return diffTurnoverRecords(stored, calculated), nil
}

// diffTurnoverRecords 比对存量与重算结果，差异按经销商ID排序输出
func diffTurnoverRecords(stored, calculated []models.TurnoverRecord) []AuditIssue {
	calcByDealer := make(map[uint]models.TurnoverRecord, len(calculated))
	for _, record := range calculated {
		calcByDealer[record.DealerID] = record
	}
	storedByDealer := make(map[uint]models.TurnoverRecord, len(stored))
	for _, record := range stored {
		storedByDealer[record.DealerID] = record
	}

	issues := make([]AuditIssue, 0)
	for _, record := range stored {
		calc, ok := calcByDealer[record.DealerID]
		if !ok {
			issues = append(issues, AuditIssue{
				RecordID:        record.ID,
				DealerID:        record.DealerID,
				CheckType:       constants.AuditCheckOrphanRecord,
				StoredValue:     record.TotalTurnover.String(),
				CalculatedValue: "",
				Difference:      record.TotalTurnover.String(),
			})
			continue
		}
		issues = append(issues, compareRecord(record, calc)...)
	}
	for _, calc := range calculated {
		if _, ok := storedByDealer[calc.DealerID]; ok {
			continue
		}
		issues = append(issues, AuditIssue{
			DealerID:        calc.DealerID,
			CheckType:       constants.AuditCheckMissingRecord,
			StoredValue:     "",
			CalculatedValue: calc.TotalTurnover.String(),
			Difference:      calc.TotalTurnover.String(),
		})
	}
	sort.Slice(issues, func(i, j int) bool {
		if issues[i].DealerID != issues[j].DealerID {
			return issues[i].DealerID < issues[j].DealerID
		}
		return issues[i].CheckType < issues[j].CheckType
	})
	return issues
}

// compareRecord 逐字段比对单条业绩记录
func compareRecord(stored, calc models.TurnoverRecord) []AuditIssue {
	issues := make([]AuditIssue, 0)
	addMoneyIssue := func(checkType string, storedValue, calcValue models.Money) {
		if storedValue.Decimal.Equal(calcValue.Decimal) {
			return
		}
		issues = append(issues, AuditIssue{
			RecordID:        stored.ID,
			DealerID:        stored.DealerID,
			CheckType:       checkType,
			StoredValue:     storedValue.String(),
			CalculatedValue: calcValue.String(),
			Difference:      storedValue.Decimal.Sub(calcValue.Decimal).Round(2).String(),
		})
	}
	addMoneyIssue(constants.AuditCheckPersonalTurnover, stored.PersonalTurnover, calc.PersonalTurnover)
	addMoneyIssue(constants.AuditCheckTeamTurnover, stored.TeamTurnover, calc.TeamTurnover)
	addMoneyIssue(constants.AuditCheckTotalTurnover, stored.TotalTurnover, calc.TotalTurnover)
	addMoneyIssue(constants.AuditCheckBonusPercent, stored.BonusPercent, calc.BonusPercent)
	if stored.TierID != calc.TierID {
		issues = append(issues, AuditIssue{
			RecordID:        stored.ID,
			DealerID:        stored.DealerID,
			CheckType:       constants.AuditCheckResolvedTier,
			StoredValue:     stored.TierName,
			CalculatedValue: calc.TierName,
			Difference:      "",
		})
	}
	return issues
}

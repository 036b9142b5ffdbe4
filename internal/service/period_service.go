package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/logger"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"gorm.io/gorm"
)

// PeriodService 结算周期生命周期服务（open → finalized → paid）
type PeriodService struct {
	periodRepo        repository.PeriodRepository
	turnoverRepo      repository.TurnoverRepository
	bonusRepo         repository.BonusRepository
	orderRepo         repository.OrderRepository
	turnoverService   *TurnoverService
	commissionService *CommissionService
	auditService      *AuditService
	ledgerService     *LedgerService
}

// NewPeriodService 创建结算周期服务
func NewPeriodService(
	periodRepo repository.PeriodRepository,
	turnoverRepo repository.TurnoverRepository,
	bonusRepo repository.BonusRepository,
	orderRepo repository.OrderRepository,
	turnoverService *TurnoverService,
	commissionService *CommissionService,
	auditService *AuditService,
	ledgerService *LedgerService,
) *PeriodService {
	return &PeriodService{
		periodRepo:        periodRepo,
		turnoverRepo:      turnoverRepo,
		bonusRepo:         bonusRepo,
		orderRepo:         orderRepo,
		turnoverService:   turnoverService,
		commissionService: commissionService,
		auditService:      auditService,
		ledgerService:     ledgerService,
	}
}

// PeriodStatus 结算周期读模型
type PeriodStatus struct {
	Month        string       `json:"month"`
	Status       string       `json:"status"`
	HasData      bool         `json:"has_data"`
	IsCurrent    bool         `json:"is_current"`
	IsHistorical bool         `json:"is_historical"`
	IsFinalized  bool         `json:"is_finalized"`
	IsPaid       bool         `json:"is_paid"`
	BonusCount   int64        `json:"bonus_count"`
	BonusTotal   models.Money `json:"bonus_total"`
	FinalizedAt  *time.Time   `json:"finalized_at,omitempty"`
	PaidAt       *time.Time   `json:"paid_at,omitempty"`
}

// ValidateMonth 校验月份格式（YYYY-MM）
func ValidateMonth(month string) error {
	if _, err := time.Parse(constants.MonthLayout, month); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMonth, month)
	}
	return nil
}

// Status 单月结算周期状态
func (s *PeriodService) Status(month string) (*PeriodStatus, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	period, err := s.periodRepo.GetByMonth(month)
	if err != nil {
		return nil, err
	}
	records, err := s.turnoverRepo.ListByMonth(month)
	if err != nil {
		return nil, err
	}
	status := &PeriodStatus{
		Month:        month,
		Status:       constants.PeriodStatusOpen,
		HasData:      len(records) > 0,
		IsCurrent:    month == CurrentMonth(),
		IsHistorical: month < CurrentMonth(),
	}
	if period != nil {
		status.Status = period.Status
		status.IsFinalized = period.Status != constants.PeriodStatusOpen
		status.IsPaid = period.Status == constants.PeriodStatusPaid
		status.BonusCount = period.BonusCount
		status.BonusTotal = period.BonusTotal
		status.FinalizedAt = period.FinalizedAt
		status.PaidAt = period.PaidAt
	}
	return status, nil
}

// ListPeriods 全部结算周期（有订单数据的月份并入，月份倒序）
func (s *PeriodService) ListPeriods() ([]PeriodStatus, error) {
	months, err := s.orderRepo.DistinctMonths()
	if err != nil {
		return nil, err
	}
	periods, _, err := s.periodRepo.List(0, 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(months)+len(periods))
	for _, month := range months {
		seen[month] = true
	}
	for _, period := range periods {
		seen[period.Month] = true
	}
	all := make([]string, 0, len(seen))
	for month := range seen {
		all = append(all, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(all)))

	result := make([]PeriodStatus, 0, len(all))
	for _, month := range all {
		status, err := s.Status(month)
		if err != nil {
			return nil, err
		}
		result = append(result, *status)
	}
	return result, nil
}

// Preview 非持久化预演当月分配（当前月也允许，仅投影）。
// 已封账月份以固化明细为准，拒绝再次试算；无订单数据的月份无可试算内容。
func (s *PeriodService) Preview(month string) (*PreviewResult, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	period, err := s.periodRepo.GetByMonth(month)
	if err != nil {
		return nil, err
	}
	if period != nil && period.Status != constants.PeriodStatusOpen {
		return nil, ErrPeriodAlreadyFinalized
	}
	dealerIDs, err := s.orderRepo.DistinctDealerIDsByMonth(month)
	if err != nil {
		return nil, err
	}
	if len(dealerIDs) == 0 {
		return nil, ErrPeriodNoData
	}
	return s.commissionService.PreviewMonth(month)
}

// Audit 对账读模型
func (s *PeriodService) Audit(month string) ([]AuditIssue, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	return s.auditService.ReconcileMonth(month)
}

// Finalize 封账：对账通过后固化业绩与奖金明细，周期行锁串行化并发封账。
// 当前月与已封账月份拒绝，存量记录与重算结果不一致时携带差异失败。
func (s *PeriodService) Finalize(month string, adminID uint) (*models.SettlementPeriod, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}
	if month >= CurrentMonth() {
		return nil, ErrPeriodIsCurrent
	}

	err := s.periodRepo.Transaction(func(tx *gorm.DB) error {
		periodTx := s.periodRepo.WithTx(tx)
		period, err := s.lockOrCreatePeriod(periodTx, month)
		if err != nil {
			return err
		}
		if period.Status != constants.PeriodStatusOpen {
			return ErrPeriodAlreadyFinalized
		}

		calculated, err := s.turnoverService.ComputeMonth(month)
		if err != nil {
			return err
		}
		if len(calculated) == 0 {
			return ErrPeriodNoData
		}
		stored, err := s.turnoverRepo.WithTx(tx).ListByMonth(month)
		if err != nil {
			return err
		}
		// 存量记录与重算结果不一致说明封账前数据被篡改或过期，拦截并返回差异
		if len(stored) > 0 {
			if issues := diffTurnoverRecords(stored, calculated); len(issues) > 0 {
				return &AuditMismatchError{Month: month, Issues: issues}
			}
		}

		now := time.Now()
		for i := range calculated {
			calculated[i].CreatedAt = now
			calculated[i].UpdatedAt = now
		}
		if err := s.turnoverRepo.WithTx(tx).ReplaceMonth(month, calculated); err != nil {
			return err
		}

		preview, err := s.commissionService.PreviewMonth(month)
		if err != nil {
			return err
		}
		for i := range preview.Transactions {
			preview.Transactions[i].CreatedAt = now
		}
		if err := s.bonusRepo.WithTx(tx).CreateBatch(preview.Transactions); err != nil {
			return err
		}
		if err := s.turnoverRepo.MarkFinalByMonth(tx, month); err != nil {
			return err
		}

		period.Status = constants.PeriodStatusFinalized
		period.BonusCount = preview.BonusCount
		period.BonusTotal = preview.BonusTotal
		period.FinalizedBy = &adminID
		period.FinalizedAt = &now
		period.UpdatedAt = now
		return periodTx.Update(period)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("period_finalized", "month", month, "admin_id", adminID)
	return s.periodRepo.GetByMonth(month)
}

// lockOrCreatePeriod 加锁获取周期行，不存在则创建后再加锁。
// 唯一月份索引保证并发创建只有一方成功，失败方重读后按已存在处理。
func (s *PeriodService) lockOrCreatePeriod(periodTx repository.PeriodRepository, month string) (*models.SettlementPeriod, error) {
	period, err := periodTx.GetByMonthForUpdate(month)
	if err != nil {
		return nil, err
	}
	if period != nil {
		return period, nil
	}
	created := &models.SettlementPeriod{
		Month:  month,
		Status: constants.PeriodStatusOpen,
	}
	if err := periodTx.Create(created); err != nil {
		existing, lookupErr := periodTx.GetByMonthForUpdate(month)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return periodTx.GetByMonthForUpdate(month)
}

// Pay 发放：封账后的奖金明细逐笔入账到受益人账本，周期置为已发放
func (s *PeriodService) Pay(month string, adminID uint) (*models.SettlementPeriod, error) {
	if err := ValidateMonth(month); err != nil {
		return nil, err
	}

	err := s.periodRepo.Transaction(func(tx *gorm.DB) error {
		periodTx := s.periodRepo.WithTx(tx)
		period, err := periodTx.GetByMonthForUpdate(month)
		if err != nil {
			return err
		}
		if period == nil {
			return ErrNotFound
		}
		if period.Status == constants.PeriodStatusPaid {
			return ErrPeriodAlreadyPaid
		}
		if period.Status != constants.PeriodStatusFinalized {
			return ErrPeriodNotFinalized
		}

		transactions, err := s.bonusRepo.WithTx(tx).ListByMonth(month)
		if err != nil {
			return err
		}
		for _, bonus := range transactions {
			incomeType := constants.IncomeTypeOrderBonus
			if bonus.BonusType == constants.BonusTypeDifferential {
				incomeType = constants.IncomeTypeDifferentialBonus
			}
			bonusID := bonus.ID
			_, err := s.ledgerService.Credit(tx, CreditInput{
				DealerID:           bonus.BeneficiaryID,
				Month:              month,
				Type:               incomeType,
				Amount:             bonus.BonusAmount.Decimal,
				BonusTransactionID: &bonusID,
				Remark:             fmt.Sprintf("%s 月度奖金发放", month),
			})
			if err != nil {
				return err
			}
		}

		now := time.Now()
		period.Status = constants.PeriodStatusPaid
		period.PaidBy = &adminID
		period.PaidAt = &now
		period.UpdatedAt = now
		return periodTx.Update(period)
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("period_paid", "month", month, "admin_id", adminID)
	return s.periodRepo.GetByMonth(month)
}

// EnsureOpenPeriod 确保当前月的结算周期行存在（worker 滚动周期指针用）
func (s *PeriodService) EnsureOpenPeriod(month string) error {
	if err := ValidateMonth(month); err != nil {
		return err
	}
	period, err := s.periodRepo.GetByMonth(month)
	if err != nil {
		return err
	}
	if period != nil {
		return nil
	}
	return s.periodRepo.Create(&models.SettlementPeriod{
		Month:  month,
		Status: constants.PeriodStatusOpen,
	})
}

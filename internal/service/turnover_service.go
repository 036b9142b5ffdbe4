package service

import (
	"sort"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
)

// TurnoverService 月度业绩聚合服务
type TurnoverService struct {
	dealerRepo   repository.DealerRepository
	orderRepo    repository.OrderRepository
	turnoverRepo repository.TurnoverRepository
	periodRepo   repository.PeriodRepository
	tierService  *TierService
}

// NewTurnoverService 创建业绩聚合服务
func NewTurnoverService(
	dealerRepo repository.DealerRepository,
	orderRepo repository.OrderRepository,
	turnoverRepo repository.TurnoverRepository,
	periodRepo repository.PeriodRepository,
	tierService *TierService,
) *TurnoverService {
	return &TurnoverService{
		dealerRepo:   dealerRepo,
		orderRepo:    orderRepo,
		turnoverRepo: turnoverRepo,
		periodRepo:   periodRepo,
		tierService:  tierService,
	}
}

// ComputeMonth 纯计算当月全部经销商业绩记录，不落库。
// 个人业绩来自订单分组汇总，团队业绩沿谱系树后序遍历一次累加。
func (s *TurnoverService) ComputeMonth(month string) ([]models.TurnoverRecord, error) {
	dealers, err := s.dealerRepo.ListAll()
	if err != nil {
		return nil, err
	}
	tree, err := BuildSponsorTree(dealers)
	if err != nil {
		return nil, err
	}
	personal, err := s.orderRepo.SumGroupedByDealerForMonth(month)
	if err != nil {
		return nil, err
	}
	return s.computeWithTree(month, tree, personal)
}

// computeWithTree 自底向上累加团队业绩并逐条解析档位
func (s *TurnoverService) computeWithTree(month string, tree *SponsorTree, personal map[uint]decimal.Decimal) ([]models.TurnoverRecord, error) {
	totals := make(map[uint]decimal.Decimal, tree.Size())
	for _, id := range tree.BottomUpOrder() {
		total := personal[id]
		for _, child := range tree.ChildrenOf(id) {
			total = total.Add(totals[child])
		}
		totals[id] = total
	}

	records := make([]models.TurnoverRecord, 0, tree.Size())
	for _, id := range tree.BottomUpOrder() {
		personalAmount := personal[id].Round(2)
		totalAmount := totals[id].Round(2)
		teamAmount := totalAmount.Sub(personalAmount).Round(2)
		if personalAmount.IsZero() && teamAmount.IsZero() {
			continue
		}
		tier, err := s.tierService.Resolve(totalAmount)
		if err != nil {
			return nil, err
		}
		records = append(records, models.TurnoverRecord{
			DealerID:         id,
			Month:            month,
			PersonalTurnover: models.NewMoneyFromDecimal(personalAmount),
			TeamTurnover:     models.NewMoneyFromDecimal(teamAmount),
			TotalTurnover:    models.NewMoneyFromDecimal(totalAmount),
			TierID:           tier.ID,
			TierName:         tier.Name,
			BonusPercent:     tier.BonusPercent,
		})
	}
	// 输出按经销商ID排序，保证重算结果可重放比对
	sort.Slice(records, func(i, j int) bool { return records[i].DealerID < records[j].DealerID })
	return records, nil
}

// RecomputeMonth 重算并落库当月业绩记录，封账月份拒绝变更。
// 重复调用幂等，订单到达顺序不影响结果。
func (s *TurnoverService) RecomputeMonth(month string) ([]models.TurnoverRecord, error) {
	period, err := s.periodRepo.GetByMonth(month)
	if err != nil {
		return nil, err
	}
	if period != nil && period.Status != constants.PeriodStatusOpen {
		return nil, ErrPeriodFinalized
	}
	records, err := s.ComputeMonth(month)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range records {
		records[i].CreatedAt = now
		records[i].UpdatedAt = now
	}
	if err := s.turnoverRepo.ReplaceMonth(month, records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetDealerTurnover 经销商当月业绩记录
func (s *TurnoverService) GetDealerTurnover(dealerID uint, month string) (*models.TurnoverRecord, error) {
	if dealerID == 0 {
		return nil, ErrNotFound
	}
	return s.turnoverRepo.GetByDealerAndMonth(dealerID, month)
}

// ListDealerTurnover 经销商历史业绩记录
func (s *TurnoverService) ListDealerTurnover(dealerID uint) ([]models.TurnoverRecord, error) {
	if dealerID == 0 {
		return []models.TurnoverRecord{}, nil
	}
	return s.turnoverRepo.ListByDealer(dealerID)
}

// CurrentMonth 当前自然月（业绩归属口径）
func CurrentMonth() string {
	return time.Now().Format(constants.MonthLayout)
}

package service

import (
	"fmt"

	"github.com/meili-next/internal/config"
	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var percentBase = decimal.NewFromInt(100)

// CommissionService 级差压缩分配服务
type CommissionService struct {
	cfg             *config.Config
	dealerRepo      repository.DealerRepository
	orderRepo       repository.OrderRepository
	turnoverService *TurnoverService
	tierService     *TierService
	ledgerService   *LedgerService
	ledgerRepo      repository.LedgerRepository
}

// NewCommissionService 创建级差分配服务
func NewCommissionService(
	cfg *config.Config,
	dealerRepo repository.DealerRepository,
	orderRepo repository.OrderRepository,
	turnoverService *TurnoverService,
	tierService *TierService,
	ledgerService *LedgerService,
	ledgerRepo repository.LedgerRepository,
) *CommissionService {
	return &CommissionService{
		cfg:             cfg,
		dealerRepo:      dealerRepo,
		orderRepo:       orderRepo,
		turnoverService: turnoverService,
		tierService:     tierService,
		ledgerService:   ledgerService,
		ledgerRepo:      ledgerRepo,
	}
}

// PreviewResult 月度分配预演结果
type PreviewResult struct {
	Month        string                    `json:"month"`
	Transactions []models.BonusTransaction `json:"transactions"`
	BonusCount   int64                     `json:"bonus_count"`
	BonusTotal   models.Money              `json:"bonus_total"`
}

// PreviewMonth 非持久化预演当月级差分配。
// 同一输入多次调用输出完全一致（订单按ID、层级由近及远排序）。
func (s *CommissionService) PreviewMonth(month string) (*PreviewResult, error) {
	dealers, err := s.dealerRepo.ListAll()
	if err != nil {
		return nil, err
	}
	tree, err := BuildSponsorTree(dealers)
	if err != nil {
		return nil, err
	}
	records, err := s.turnoverService.ComputeMonth(month)
	if err != nil {
		return nil, err
	}
	percents := make(map[uint]decimal.Decimal, len(records))
	for _, record := range records {
		percents[record.DealerID] = record.BonusPercent.Decimal
	}
	orders, err := s.orderRepo.ListByMonth(month)
	if err != nil {
		return nil, err
	}
	topPercent, err := s.tierService.TopPercent()
	if err != nil {
		return nil, err
	}

	levelCap := 0
	if s.cfg != nil {
		levelCap = s.cfg.Commission.LevelCap
	}

	transactions := make([]models.BonusTransaction, 0, len(orders)*2)
	total := decimal.Zero
	for _, order := range orders {
		if !tree.Contains(order.DealerID) {
			return nil, fmt.Errorf("%w: 订单 %s 的经销商 %d 不在谱系树中", ErrSponsorTreeOrphan, order.OrderNo, order.DealerID)
		}
		amount := order.Amount.Decimal
		ownPercent := percents[order.DealerID]

		// 本人奖金按自身档位比例全额计提（层级0）
		personalBonus := amount.Mul(ownPercent).Div(percentBase).Round(2)
		if personalBonus.GreaterThan(decimal.Zero) {
			transactions = append(transactions, models.BonusTransaction{
				Month:          month,
				BeneficiaryID:  order.DealerID,
				ContributorID:  order.DealerID,
				OrderID:        order.ID,
				BonusType:      constants.BonusTypePersonal,
				OrderAmount:    order.Amount,
				BonusPercent:   models.NewMoneyFromDecimal(ownPercent),
				BonusAmount:    models.NewMoneyFromDecimal(personalBonus),
				HierarchyLevel: 0,
			})
			total = total.Add(personalBonus)
		}

		// 级差压缩：上级只拿超出已计提上限的差额，平级或更低不计提
		ancestors, err := tree.AncestorsOf(order.DealerID)
		if err != nil {
			return nil, err
		}
		creditedMax := ownPercent
		for i, ancestorID := range ancestors {
			level := i + 1
			if levelCap > 0 && level > levelCap {
				break
			}
			if creditedMax.GreaterThanOrEqual(topPercent) {
				break
			}
			ancestorPercent := percents[ancestorID]
			if ancestorPercent.LessThanOrEqual(creditedMax) {
				continue
			}
			delta := ancestorPercent.Sub(creditedMax)
			bonus := amount.Mul(delta).Div(percentBase).Round(2)
			if bonus.GreaterThan(decimal.Zero) {
				transactions = append(transactions, models.BonusTransaction{
					Month:          month,
					BeneficiaryID:  ancestorID,
					ContributorID:  order.DealerID,
					OrderID:        order.ID,
					BonusType:      constants.BonusTypeDifferential,
					OrderAmount:    order.Amount,
					BonusPercent:   models.NewMoneyFromDecimal(delta),
					BonusAmount:    models.NewMoneyFromDecimal(bonus),
					HierarchyLevel: level,
				})
				total = total.Add(bonus)
			}
			creditedMax = ancestorPercent
		}
	}

	return &PreviewResult{
		Month:        month,
		Transactions: transactions,
		BonusCount:   int64(len(transactions)),
		BonusTotal:   models.NewMoneyFromDecimal(total.Round(2)),
	}, nil
}

// DistributeSubscriptionBonus 订阅付款三级推荐奖金，逐级按固定比例即时入账
func (s *CommissionService) DistributeSubscriptionBonus(dealerID uint, amount decimal.Decimal) error {
	amount = amount.Round(2)
	if dealerID == 0 || amount.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	levels := []float64{}
	if s.cfg != nil {
		levels = s.cfg.Commission.SubscriptionLevels
	}
	if len(levels) == 0 {
		return nil
	}
	if len(levels) > 3 {
		levels = levels[:3]
	}

	dealers, err := s.dealerRepo.ListAll()
	if err != nil {
		return err
	}
	tree, err := BuildSponsorTree(dealers)
	if err != nil {
		return err
	}
	if !tree.Contains(dealerID) {
		return ErrNotFound
	}
	ancestors, err := tree.AncestorsOf(dealerID)
	if err != nil {
		return err
	}

	month := CurrentMonth()
	return s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
		for i, ancestorID := range ancestors {
			if i >= len(levels) {
				break
			}
			ancestor, ok := tree.Dealer(ancestorID)
			if !ok || ancestor.Status != constants.DealerStatusActive {
				continue
			}
			percent := decimal.NewFromFloat(levels[i])
			bonus := amount.Mul(percent).Div(percentBase).Round(2)
			if bonus.LessThanOrEqual(decimal.Zero) {
				continue
			}
			_, err := s.ledgerService.Credit(tx, CreditInput{
				DealerID: ancestorID,
				Month:    month,
				Type:     constants.IncomeTypeSubscriptionBonus,
				Amount:   bonus,
				Remark:   fmt.Sprintf("订阅奖金 L%d 来自经销商 %d", i+1, dealerID),
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

package service

import (
	"fmt"
	"sync"

	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
)

var centStep = decimal.New(1, -2)

// TierService 奖金档位解析服务，档位表整表加载并校验后只读使用
type TierService struct {
	tierRepo repository.TierRepository

	mu    sync.RWMutex
	tiers []models.BonusTier
}

// NewTierService 创建奖金档位服务
func NewTierService(tierRepo repository.TierRepository) *TierService {
	return &TierService{tierRepo: tierRepo}
}

// Reload 从库加载并校验档位表，校验失败保留旧表
func (s *TierService) Reload() error {
	if s.tierRepo == nil {
		return ErrTierConfigInvalid
	}
	tiers, err := s.tierRepo.ListOrdered()
	if err != nil {
		return err
	}
	if err := ValidateTiers(tiers); err != nil {
		return err
	}
	s.mu.Lock()
	s.tiers = tiers
	s.mu.Unlock()
	return nil
}

// ValidateTiers 校验档位表：下限从0开始、分厘相接、唯一无上限顶档、比例严格递增
func ValidateTiers(tiers []models.BonusTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: 档位表为空", ErrTierConfigInvalid)
	}
	if !tiers[0].MinAmount.Decimal.IsZero() {
		return fmt.Errorf("%w: 首档下限必须为 0", ErrTierConfigInvalid)
	}
	for i, tier := range tiers {
		if tier.BonusPercent.Decimal.IsNegative() {
			return fmt.Errorf("%w: 档位 %s 比例为负", ErrTierConfigInvalid, tier.Name)
		}
		if i > 0 && tier.BonusPercent.Decimal.LessThanOrEqual(tiers[i-1].BonusPercent.Decimal) {
			return fmt.Errorf("%w: 档位 %s 比例未严格递增", ErrTierConfigInvalid, tier.Name)
		}
		last := i == len(tiers)-1
		if last {
			if tier.MaxAmount != nil {
				return fmt.Errorf("%w: 顶档 %s 必须无上限", ErrTierConfigInvalid, tier.Name)
			}
			continue
		}
		if tier.MaxAmount == nil {
			return fmt.Errorf("%w: 非顶档 %s 缺少上限", ErrTierConfigInvalid, tier.Name)
		}
		if tier.MaxAmount.Decimal.LessThan(tier.MinAmount.Decimal) {
			return fmt.Errorf("%w: 档位 %s 上限小于下限", ErrTierConfigInvalid, tier.Name)
		}
		// 区间闭合，相邻档位下限必须是上一档上限加一分
		expectedNextMin := tier.MaxAmount.Decimal.Add(centStep)
		if !tiers[i+1].MinAmount.Decimal.Equal(expectedNextMin) {
			return fmt.Errorf("%w: 档位 %s 与 %s 之间存在间隙或重叠", ErrTierConfigInvalid, tier.Name, tiers[i+1].Name)
		}
	}
	return nil
}

// Resolve 按总业绩解析唯一命中的档位
func (s *TierService) Resolve(total decimal.Decimal) (*models.BonusTier, error) {
	s.mu.RLock()
	tiers := s.tiers
	s.mu.RUnlock()
	if len(tiers) == 0 {
		return nil, ErrTierConfigInvalid
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	for i := range tiers {
		tier := tiers[i]
		if total.LessThan(tier.MinAmount.Decimal) {
			continue
		}
		if tier.MaxAmount == nil || total.LessThanOrEqual(tier.MaxAmount.Decimal) {
			return &tier, nil
		}
	}
	// 校验通过的表覆盖全部非负金额，走到这里说明配置被绕过校验篡改
	return nil, ErrTierConfigInvalid
}

// TopPercent 顶档比例（压缩分配的提前终止阈值）
func (s *TierService) TopPercent() (decimal.Decimal, error) {
	s.mu.RLock()
	tiers := s.tiers
	s.mu.RUnlock()
	if len(tiers) == 0 {
		return decimal.Zero, ErrTierConfigInvalid
	}
	return tiers[len(tiers)-1].BonusPercent.Decimal, nil
}

// ListTiers 当前生效的档位表快照
func (s *TierService) ListTiers() []models.BonusTier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tiers := make([]models.BonusTier, len(s.tiers))
	copy(tiers, s.tiers)
	return tiers
}

// ReplaceTiers 管理端整表替换档位，先校验后原子写入并热加载
func (s *TierService) ReplaceTiers(tiers []models.BonusTier) error {
	if s.tierRepo == nil {
		return ErrTierConfigInvalid
	}
	for i := range tiers {
		tiers[i].SortOrder = i + 1
	}
	if err := ValidateTiers(tiers); err != nil {
		return err
	}
	if err := s.tierRepo.ReplaceAll(tiers); err != nil {
		return err
	}
	return s.Reload()
}

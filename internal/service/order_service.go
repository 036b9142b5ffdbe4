package service

import (
	"strings"
	"time"

	"github.com/meili-next/internal/constants"
	"github.com/meili-next/internal/models"
	"github.com/meili-next/internal/repository"

	"github.com/shopspring/decimal"
)

// OrderService 已支付订单接入服务（上游商城推送，本服务只做业绩口径存储）
type OrderService struct {
	dealerRepo repository.DealerRepository
	orderRepo  repository.OrderRepository
}

// NewOrderService 创建订单服务
func NewOrderService(dealerRepo repository.DealerRepository, orderRepo repository.OrderRepository) *OrderService {
	return &OrderService{
		dealerRepo: dealerRepo,
		orderRepo:  orderRepo,
	}
}

// OrderIngestInput 订单接入参数
type OrderIngestInput struct {
	OrderNo  string          `json:"order_no"`
	DealerID uint            `json:"dealer_id"`
	Amount   decimal.Decimal `json:"amount"`
	PaidAt   time.Time       `json:"paid_at"`
}

// Ingest 接入一笔已支付订单，月份按支付时间归属。订单号幂等。
func (s *OrderService) Ingest(input OrderIngestInput) (*models.Order, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if orderNo == "" || input.DealerID == 0 {
		return nil, ErrOrderInvalid
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrOrderInvalid
	}
	dealer, err := s.dealerRepo.GetByID(input.DealerID)
	if err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, ErrNotFound
	}
	if dealer.Status != constants.DealerStatusActive {
		return nil, ErrDealerDisabled
	}

	existing, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOrderExists
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	order := &models.Order{
		OrderNo:   orderNo,
		DealerID:  input.DealerID,
		Amount:    models.NewMoneyFromDecimal(input.Amount),
		Month:     paidAt.Format(constants.MonthLayout),
		PaidAt:    paidAt,
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// List 分页查询订单
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

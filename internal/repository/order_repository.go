package repository

import (
	"errors"
	"strings"

	"github.com/meili-next/internal/models"
	"github.com/shopspring/decimal"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository

	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListByMonth(month string) ([]models.Order, error)
	SumByDealerAndMonth(dealerID uint, month string) (decimal.Decimal, error)
	SumGroupedByDealerForMonth(month string) (map[uint]decimal.Decimal, error)
	DistinctDealerIDsByMonth(month string) ([]uint, error)
	DistinctMonths() ([]string, error)
}

// GormOrderRepository GORM 订单仓储
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) OrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 按ID获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按订单号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 分页查询订单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.DealerID != 0 {
		query = query.Where("dealer_id = ?", filter.DealerID)
	}
	if filter.Month != "" {
		query = query.Where("month = ?", filter.Month)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListByMonth 获取指定月份全部订单
func (r *GormOrderRepository) ListByMonth(month string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.db.Where("month = ?", month).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// SumByDealerAndMonth 汇总经销商当月订单金额
func (r *GormOrderRepository) SumByDealerAndMonth(dealerID uint, month string) (decimal.Decimal, error) {
	if dealerID == 0 || month == "" {
		return decimal.Zero, nil
	}
	var raw string
	err := r.db.Model(&models.Order{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("dealer_id = ? AND month = ?", dealerID, month).
		Scan(&raw).Error
	if err != nil {
		return decimal.Zero, err
	}
	sum, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumGroupedByDealerForMonth 按经销商分组汇总当月订单金额
func (r *GormOrderRepository) SumGroupedByDealerForMonth(month string) (map[uint]decimal.Decimal, error) {
	var rows []struct {
		DealerID uint
		Total    string
	}
	err := r.db.Model(&models.Order{}).
		Select("dealer_id, COALESCE(SUM(amount), 0) AS total").
		Where("month = ?", month).
		Group("dealer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[uint]decimal.Decimal, len(rows))
	for _, row := range rows {
		total, err := decimal.NewFromString(row.Total)
		if err != nil {
			return nil, err
		}
		result[row.DealerID] = total
	}
	return result, nil
}

// DistinctMonths 获取存在订单的全部月份（倒序）
func (r *GormOrderRepository) DistinctMonths() ([]string, error) {
	months := make([]string, 0)
	err := r.db.Model(&models.Order{}).
		Distinct("month").
		Order("month DESC").
		Pluck("month", &months).Error
	if err != nil {
		return nil, err
	}
	return months, nil
}

// DistinctDealerIDsByMonth 获取当月有订单的经销商ID集合
func (r *GormOrderRepository) DistinctDealerIDsByMonth(month string) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.Model(&models.Order{}).
		Where("month = ?", month).
		Distinct("dealer_id").
		Pluck("dealer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yashrajoria/multivendor-store/services/order-service/models"
)

// GormOrderRepository implements OrderRepository on Postgres.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByBuyer(ctx context.Context, buyer string) ([]models.Order, error) {
	return r.find(r.db.WithContext(ctx).Where("buyer = ?", buyer))
}

func (r *GormOrderRepository) FindByVendor(ctx context.Context, vendor string) ([]models.Order, error) {
	return r.find(r.db.WithContext(ctx).Where("vendor = ?", vendor))
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	return r.find(r.db.WithContext(ctx))
}

func (r *GormOrderRepository) find(query *gorm.DB) ([]models.Order, error) {
	orders := []models.Order{}
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("find orders: %w", err)
	}
	return orders, nil
}

func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(mutableFields(order))
	if res.Error != nil {
		return fmt.Errorf("update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleOrder
	}
	order.Version++
	return nil
}

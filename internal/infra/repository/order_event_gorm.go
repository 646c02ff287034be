package repository

import (
	"context"

	"shop/internal/domain/model"

	"gorm.io/gorm"
)

type OrderEventGormRepository struct {
	db *gorm.DB
}

func NewOrderEventGormRepository(db *gorm.DB) *OrderEventGormRepository {
	return &OrderEventGormRepository{db: db}
}

func (r *OrderEventGormRepository) Create(ctx context.Context, ev model.OrderEvent) error {
	return r.db.WithContext(ctx).Create(&ev).Error
}

func (r *OrderEventGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	var evs []model.OrderEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&evs).Error
	if err != nil {
		return nil, err
	}
	return evs, nil
}

func (r *OrderEventGormRepository) DeleteByOrderID(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.OrderEvent{}).Error
}

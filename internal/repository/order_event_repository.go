package repository

import (
	"context"

	"shop/internal/domain/model"
)

type OrderEventRepository interface {
	Create(ctx context.Context, ev model.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error)

	//補償削除用
	DeleteByOrderID(ctx context.Context, orderID int64) error
}

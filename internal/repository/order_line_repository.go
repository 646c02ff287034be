package repository

import (
	"context"

	"shop/internal/domain/model"
)

type OrderLineRepository interface {
	CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error)

	//補償削除用
	DeleteByOrderID(ctx context.Context, orderID int64) error
}

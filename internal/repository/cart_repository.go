package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CartRepository interface {
	Create(ctx context.Context, cart model.Cart) (model.Cart, error)
	FindActiveByToken(ctx context.Context, token string) (model.Cart, error)
	UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error
	Clear(ctx context.Context, cartID int64) error
}

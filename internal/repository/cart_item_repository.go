package repository

import (
	"context"

	"shop/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)

	//同じ(product, variant)の明細があれば数量をプラス
	UpsertLine(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64) error
}

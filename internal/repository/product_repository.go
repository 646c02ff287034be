package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// カタログ読み取り。価格・送料・在庫の現在値を引くだけで、書き込みはしない。
type ProductRepository interface {
	FindByID(ctx context.Context, id int64) (model.Product, error)
}

type VariantRepository interface {
	//productIDに属さないバリアントはErrNotFound
	FindByID(ctx context.Context, id int64, productID int64) (model.Variant, error)

	//バリアントを1つでも持つ商品はバリアント指定なしで売れない
	CountByProductID(ctx context.Context, productID int64) (int64, error)
}

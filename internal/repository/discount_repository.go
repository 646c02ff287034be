package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

type DiscountRepository interface {
	//codeは大文字に正規化して渡す
	FindByCode(ctx context.Context, code string) (model.Discount, error)
	FindByID(ctx context.Context, id int64) (model.Discount, error)

	Create(ctx context.Context, d model.Discount) (model.Discount, error)
	List(ctx context.Context, page int, limit int) ([]model.Discount, int64, error)

	//有効/無効の切り替え。atがnilなら有効化。
	SetDisabledAt(ctx context.Context, id int64, at *time.Time) error

	//確定済み注文でコードが使われたときだけ呼ぶ
	IncrementUsage(ctx context.Context, code string) error
}

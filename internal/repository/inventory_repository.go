package repository

import "context"

// 在庫を動かせるのはここだけ。
// 減算は「足りるときだけ減らす」条件付きUPDATEで行い、
// 検証と更新を別ステップに分けない。
type InventoryRepository interface {
	//在庫が足りるときだけ減らす（足りないならfalse）
	DecreaseBaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)
	DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error)

	//無条件減算。決済確定後の取り込み専用（負になり得る）。
	DecrementBaseStock(ctx context.Context, productID int64, qty int64) error
	DecrementVariantStock(ctx context.Context, variantID int64, qty int64) error

	//在庫戻し（キャンセル）
	IncreaseBaseStock(ctx context.Context, productID int64, qty int64) error
	IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error
}

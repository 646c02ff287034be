package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderLines() OrderLineRepository
	OrderEvents() OrderEventRepository
	Discounts() DiscountRepository
	Products() ProductRepository
	Variants() VariantRepository
	Inventory() InventoryRepository
	Carts() CartRepository
	CartItems() CartItemRepository
	AuditLogs() AuditLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}

package repository

import (
	"context"

	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	orderLines  repo.OrderLineRepository
	orderEvents repo.OrderEventRepository
	discounts   repo.DiscountRepository
	products    repo.ProductRepository
	variants    repo.VariantRepository
	inventory   repo.InventoryRepository
	carts       repo.CartRepository
	cartItems   repo.CartItemRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderLines() repo.OrderLineRepository   { return r.orderLines }
func (r *txReposGorm) OrderEvents() repo.OrderEventRepository { return r.orderEvents }
func (r *txReposGorm) Discounts() repo.DiscountRepository     { return r.discounts }
func (r *txReposGorm) Products() repo.ProductRepository       { return r.products }
func (r *txReposGorm) Variants() repo.VariantRepository       { return r.variants }
func (r *txReposGorm) Inventory() repo.InventoryRepository    { return r.inventory }
func (r *txReposGorm) Carts() repo.CartRepository             { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository     { return r.cartItems }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:      NewOrderGormRepository(tx),
			orderLines:  NewOrderLineGormRepository(tx),
			orderEvents: NewOrderEventGormRepository(tx),
			discounts:   NewDiscountGormRepository(tx),
			products:    NewProductGormRepository(tx),
			variants:    NewVariantGormRepository(tx),
			inventory:   NewInventoryGormRepository(tx),
			carts:       NewCartGormRepository(tx),
			cartItems:   NewCartItemGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}

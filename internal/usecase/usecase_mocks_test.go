package usecase_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// Mocks（usecaseテスト共通）
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByCheckoutSessionID(ctx context.Context, sessionID string) (model.Order, error) {
	args := m.Called(ctx, sessionID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus, fields map[string]any) error {
	args := m.Called(ctx, orderID, status, fields)
	return args.Error(0)
}

func (m *OrderRepoMock) MarkPaidIfUnpaid(ctx context.Context, orderID int64, paidAt time.Time, paymentRef string) (bool, error) {
	args := m.Called(ctx, orderID, paidAt, paymentRef)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) CancelIfUnpaid(ctx context.Context, orderID int64, canceledAt time.Time) (bool, error) {
	args := m.Called(ctx, orderID, canceledAt)
	return args.Bool(0), args.Error(1)
}

func (m *OrderRepoMock) SetCheckoutSessionID(ctx context.Context, orderID int64, sessionID string) error {
	args := m.Called(ctx, orderID, sessionID)
	return args.Error(0)
}

func (m *OrderRepoMock) SetReturnRequestedAt(ctx context.Context, orderID int64, at time.Time) error {
	args := m.Called(ctx, orderID, at)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderRepoMock) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	args := m.Called(ctx, f)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

type OrderLineRepoMock struct{ mock.Mock }

func (m *OrderLineRepoMock) CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error {
	args := m.Called(ctx, orderID, lines)
	return args.Error(0)
}

func (m *OrderLineRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	args := m.Called(ctx, orderID)
	lines, _ := args.Get(0).([]model.OrderLine)
	return lines, args.Error(1)
}

func (m *OrderLineRepoMock) DeleteByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type OrderEventRepoMock struct{ mock.Mock }

func (m *OrderEventRepoMock) Create(ctx context.Context, ev model.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *OrderEventRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderEvent, error) {
	args := m.Called(ctx, orderID)
	evs, _ := args.Get(0).([]model.OrderEvent)
	return evs, args.Error(1)
}

func (m *OrderEventRepoMock) DeleteByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) FindByID(ctx context.Context, id int64) (model.Discount, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) Create(ctx context.Context, d model.Discount) (model.Discount, error) {
	args := m.Called(ctx, d)
	created, _ := args.Get(0).(model.Discount)
	return created, args.Error(1)
}

func (m *DiscountRepoMock) List(ctx context.Context, page int, limit int) ([]model.Discount, int64, error) {
	args := m.Called(ctx, page, limit)
	items, _ := args.Get(0).([]model.Discount)
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *DiscountRepoMock) SetDisabledAt(ctx context.Context, id int64, at *time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *DiscountRepoMock) IncrementUsage(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

type VariantRepoMock struct{ mock.Mock }

func (m *VariantRepoMock) FindByID(ctx context.Context, id int64, productID int64) (model.Variant, error) {
	args := m.Called(ctx, id, productID)
	v, _ := args.Get(0).(model.Variant)
	return v, args.Error(1)
}

func (m *VariantRepoMock) CountByProductID(ctx context.Context, productID int64) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) DecreaseBaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) DecreaseVariantStockIfEnough(ctx context.Context, variantID int64, qty int64) (bool, error) {
	args := m.Called(ctx, variantID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *InventoryRepoMock) DecrementBaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecrementVariantStock(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) IncreaseBaseStock(ctx context.Context, productID int64, qty int64) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) IncreaseVariantStock(ctx context.Context, variantID int64, qty int64) error {
	args := m.Called(ctx, variantID, qty)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) Create(ctx context.Context, cart model.Cart) (model.Cart, error) {
	args := m.Called(ctx, cart)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByToken(ctx context.Context, token string) (model.Cart, error) {
	args := m.Called(ctx, token)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	args := m.Called(ctx, cartID, status)
	return args.Error(0)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertLine(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64) error {
	args := m.Called(ctx, cartID, productID, variantID, addQty)
	return args.Error(0)
}

type AuditLogRepoMock struct{ mock.Mock }

func (m *AuditLogRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditLogRepoMock) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Error(1)
}

// =====================
// TransactionManagerのスタブ
// =====================

// repo.TxReposをmockの束で満たす
type txReposStub struct {
	orders     *OrderRepoMock
	orderLines *OrderLineRepoMock
	events     *OrderEventRepoMock
	discounts  *DiscountRepoMock
	products   *ProductRepoMock
	variants   *VariantRepoMock
	inventory  *InventoryRepoMock
	carts      *CartRepoMock
	cartItems  *CartItemRepoMock
	audits     *AuditLogRepoMock
}

func newTxReposStub() *txReposStub {
	return &txReposStub{
		orders:     new(OrderRepoMock),
		orderLines: new(OrderLineRepoMock),
		events:     new(OrderEventRepoMock),
		discounts:  new(DiscountRepoMock),
		products:   new(ProductRepoMock),
		variants:   new(VariantRepoMock),
		inventory:  new(InventoryRepoMock),
		carts:      new(CartRepoMock),
		cartItems:  new(CartItemRepoMock),
		audits:     new(AuditLogRepoMock),
	}
}

func (s *txReposStub) Orders() repo.OrderRepository           { return s.orders }
func (s *txReposStub) OrderLines() repo.OrderLineRepository   { return s.orderLines }
func (s *txReposStub) OrderEvents() repo.OrderEventRepository { return s.events }
func (s *txReposStub) Discounts() repo.DiscountRepository     { return s.discounts }
func (s *txReposStub) Products() repo.ProductRepository       { return s.products }
func (s *txReposStub) Variants() repo.VariantRepository       { return s.variants }
func (s *txReposStub) Inventory() repo.InventoryRepository    { return s.inventory }
func (s *txReposStub) Carts() repo.CartRepository             { return s.carts }
func (s *txReposStub) CartItems() repo.CartItemRepository     { return s.cartItems }
func (s *txReposStub) AuditLogs() repo.AuditLogRepository     { return s.audits }

// fnのエラーをそのまま返すだけ。ロールバックの検証は
// 「エラー時に後続の書き込みが呼ばれていないこと」で行う。
type stubTxManager struct {
	repos *txReposStub
}

func (m *stubTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return fn(m.repos)
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

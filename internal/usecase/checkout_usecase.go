package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shop/internal/domain/model"
	"shop/internal/payments"
	repo "shop/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

type CheckoutUsecase struct {
	tx             repo.TransactionManager
	provider       payments.Provider //nilなら未設定（501）
	publishableKey string
	currency       string
	successURL     string
	cancelURL      string

	//外部呼び出しはここまでしか待たない
	providerTimeout time.Duration
}

type CheckoutProviderConfig struct {
	Provider       payments.Provider
	PublishableKey string
	Currency       string
	SuccessURL     string
	CancelURL      string
	Timeout        time.Duration
}

func NewCheckoutUsecase(tx repo.TransactionManager, pc CheckoutProviderConfig) *CheckoutUsecase {
	timeout := pc.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	currency := pc.Currency
	if currency == "" {
		currency = "jpy"
	}
	return &CheckoutUsecase{
		tx:              tx,
		provider:        pc.Provider,
		publishableKey:  pc.PublishableKey,
		currency:        currency,
		successURL:      pc.SuccessURL,
		cancelURL:       pc.CancelURL,
		providerTimeout: timeout,
	}
}

type LineItemInput struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type CustomerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Country string `json:"country"`
}

type CreateOrderInput struct {
	CartToken    string
	Items        []LineItemInput
	Customer     CustomerInput
	DiscountCode string
	ShippingCode string
}

type OrderBreakdownOutput struct {
	ID                    int64      `json:"id"`
	Status                string     `json:"status"`
	SubtotalCents         int64      `json:"subtotal_cents"`
	DiscountCents         int64      `json:"discount_cents"`
	ShippingCents         int64      `json:"shipping_cents"`
	ShippingDiscountCents int64      `json:"shipping_discount_cents"`
	TotalCents            int64      `json:"total_cents"`
	DiscountCode          string     `json:"discount_code"`
	ShippingCode          string     `json:"shipping_code"`
	EstimatedDeliveryAt   *time.Time `json:"estimated_delivery_at"`
}

type HostedSessionOutput struct {
	SessionID      string `json:"session_id"`
	OrderID        int64  `json:"order_id"`
	PublishableKey string `json:"publishable_key"`
	RedirectURL    string `json:"redirect_url"`
}

// 注文確定前の1明細。タイトル・単価はこの時点でスナップショット。
type assembledLine struct {
	productID      int64
	variantID      *int64
	title          string
	quantity       int64
	unitPriceCents int64
	itemFeeCents   int64 //shippingFee * quantity
	availableStock int64 //組み立て時点の読み値（ホスト型の事前チェック用）
}

// 金額内訳。両方の経路で同じ計算を通す。
type pricing struct {
	subtotalCents         int64
	discountCents         int64
	shippingCents         int64
	shippingDiscountCents int64
	totalCents            int64
	discountCode          string //適用されたときだけ入る
	shippingCode          string
}

func validateCustomer(c CustomerInput) error {
	if strings.TrimSpace(c.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	email := strings.TrimSpace(c.Email)
	if email == "" || !strings.Contains(email, "@") {
		return NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if strings.TrimSpace(c.Address) == "" {
		return NewHTTPError(http.StatusBadRequest, "address required")
	}
	if len(strings.TrimSpace(c.Country)) != 2 {
		return NewHTTPError(http.StatusBadRequest, "invalid country")
	}
	return nil
}

// カートまたはインライン明細から注文明細を組み立てる。
// どこか1行でも不正なら全体を失敗させる。
func (u *CheckoutUsecase) assembleLines(ctx context.Context, r repo.TxRepos, in CreateOrderInput) ([]assembledLine, *model.Cart, error) {
	var inputs []LineItemInput
	var cart *model.Cart

	if strings.TrimSpace(in.CartToken) != "" {
		c, err := r.Carts().FindActiveByToken(ctx, in.CartToken)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		cart = &c

		items, err := r.CartItems().ListByCartID(ctx, c.ID)
		if err != nil {
			return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		for _, ci := range items {
			inputs = append(inputs, LineItemInput{
				ProductID: ci.ProductID,
				VariantID: ci.VariantID,
				Quantity:  ci.Quantity,
			})
		}
	} else {
		inputs = in.Items
	}

	if len(inputs) == 0 {
		return nil, nil, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	lines := make([]assembledLine, 0, len(inputs))
	for _, item := range inputs {
		if item.ProductID <= 0 || item.Quantity <= 0 {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "invalid line")
		}

		p, err := r.Products().FindByID(ctx, item.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "invalid product")
		}
		if err != nil {
			return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !p.IsActive {
			return nil, nil, NewHTTPError(http.StatusBadRequest, "invalid product")
		}

		line := assembledLine{
			productID:      p.ID,
			quantity:       item.Quantity,
			unitPriceCents: p.PriceCents,
			title:          p.Title,
			itemFeeCents:   p.ShippingFeeCents * item.Quantity,
			availableStock: p.BaseInventory,
		}

		if item.VariantID != nil {
			v, err := r.Variants().FindByID(ctx, *item.VariantID, p.ID)
			if errors.Is(err, repo.ErrNotFound) {
				return nil, nil, NewHTTPError(http.StatusBadRequest, "invalid variant")
			}
			if err != nil {
				return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
			}

			vid := v.ID
			line.variantID = &vid
			line.title = p.Title + " / " + v.Title
			line.availableStock = v.Inventory
			//バリアント価格が商品価格を上書きする
			if v.PriceCents != nil {
				line.unitPriceCents = *v.PriceCents
			}
		} else {
			//バリアントを持つ商品はバリアント指定なしで売れない
			n, err := r.Variants().CountByProductID(ctx, p.ID)
			if err != nil {
				return nil, nil, NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if n > 0 {
				return nil, nil, NewHTTPError(http.StatusBadRequest, "variant required")
			}
		}

		lines = append(lines, line)
	}

	return lines, cart, nil
}

// 割引・送料の計算。両経路で同一。
func (u *CheckoutUsecase) price(ctx context.Context, r repo.TxRepos, lines []assembledLine, in CreateOrderInput, now time.Time) (pricing, error) {
	var p pricing

	var perItemFees int64
	for _, l := range lines {
		p.subtotalCents += l.unitPriceCents * l.quantity
		perItemFees += l.itemFeeCents
	}

	itemCode := NormalizeCode(in.DiscountCode)
	shipCode := NormalizeCode(in.ShippingCode)

	if itemCode != "" {
		d, err := r.Discounts().FindByCode(ctx, itemCode)
		if err == nil {
			if amount, applied := ResolveItemDiscount(d, now, p.subtotalCents); applied {
				p.discountCents = amount
				p.discountCode = itemCode
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return pricing{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	p.shippingCents = QuoteShipping(p.subtotalCents, in.Customer.Country, perItemFees)

	//同じコードを商品割引と送料割引の両方には使えない
	if shipCode != "" && shipCode != itemCode {
		d, err := r.Discounts().FindByCode(ctx, shipCode)
		if err == nil {
			if amount, applied := ResolveShippingDiscount(d, now, p.subtotalCents, p.shippingCents); applied {
				p.shippingDiscountCents = amount
				p.shippingCode = shipCode
			}
		} else if !errors.Is(err, repo.ErrNotFound) {
			return pricing{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	p.totalCents = p.subtotalCents - p.discountCents + (p.shippingCents - p.shippingDiscountCents)
	return p, nil
}

func toOrderLines(lines []assembledLine, now time.Time) []model.OrderLine {
	out := make([]model.OrderLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.OrderLine{
			ProductID:      l.productID,
			VariantID:      l.variantID,
			TitleSnapshot:  l.title,
			Quantity:       l.quantity,
			UnitPriceCents: l.unitPriceCents,
			CreatedAt:      now,
		})
	}
	return out
}

// 手動注文。検証・金額計算・在庫減算・注文作成まで1トランザクション。
func (u *CheckoutUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderBreakdownOutput, error) {
	if err := validateCustomer(in.Customer); err != nil {
		return OrderBreakdownOutput{}, err
	}

	var out OrderBreakdownOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()

		lines, cart, err := u.assembleLines(ctx, r, in)
		if err != nil {
			return err
		}

		pr, err := u.price(ctx, r, lines, in, now)
		if err != nil {
			return err
		}

		//在庫減算（足りない行が1つでもあれば全体が巻き戻る）
		for _, l := range lines {
			var ok bool
			var derr error
			if l.variantID != nil {
				ok, derr = r.Inventory().DecreaseVariantStockIfEnough(ctx, *l.variantID, l.quantity)
			} else {
				ok, derr = r.Inventory().DecreaseBaseStockIfEnough(ctx, l.productID, l.quantity)
			}
			if derr != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}
		}

		eta := now.AddDate(0, 0, deliveryDays(in.Customer.Country))
		orderID, err := r.Orders().Create(ctx, model.Order{
			Status:                model.OrderStatusCreated,
			SubtotalCents:         pr.subtotalCents,
			DiscountCents:         pr.discountCents,
			ShippingCents:         pr.shippingCents,
			ShippingDiscountCents: pr.shippingDiscountCents,
			TotalCents:            pr.totalCents,
			DiscountCode:          pr.discountCode,
			ShippingCode:          pr.shippingCode,
			CustomerName:          strings.TrimSpace(in.Customer.Name),
			CustomerEmail:         strings.TrimSpace(in.Customer.Email),
			CustomerAddress:       strings.TrimSpace(in.Customer.Address),
			CustomerCountry:       strings.ToUpper(strings.TrimSpace(in.Customer.Country)),
			PaymentProvider:       model.PaymentProviderManual,
			EstimatedDeliveryAt:   &eta,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderLines().CreateBulk(ctx, orderID, toOrderLines(lines, now)); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderEvents().Create(ctx, model.OrderEvent{
			OrderID:   orderID,
			Status:    model.OrderStatusCreated,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        ActorCustomer(strings.TrimSpace(in.Customer.Email)),
			Action:       model.AuditActionCreateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			AfterJSON:    statusJSON(model.OrderStatusCreated),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//手動注文は作成＝確定なので、ここで利用回数を数える
		if pr.discountCode != "" {
			if err := r.Discounts().IncrementUsage(ctx, pr.discountCode); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//カート経由ならCHECKED_OUTにして明細をクリア（再注文防止）
		if cart != nil {
			if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		out = OrderBreakdownOutput{
			ID:                    orderID,
			Status:                string(model.OrderStatusCreated),
			SubtotalCents:         pr.subtotalCents,
			DiscountCents:         pr.discountCents,
			ShippingCents:         pr.shippingCents,
			ShippingDiscountCents: pr.shippingDiscountCents,
			TotalCents:            pr.totalCents,
			DiscountCode:          pr.discountCode,
			ShippingCode:          pr.shippingCode,
			EstimatedDeliveryAt:   &eta,
		}
		return nil
	})

	if err != nil {
		return OrderBreakdownOutput{}, err
	}
	return out, nil
}

// ホスト型注文。
// (1) ローカルに書く → (2) 外部を呼ぶ → (3) 失敗したらローカルを消す。
// 在庫はここでは減らさない。減らすのは決済確定後のReconciler。
func (u *CheckoutUsecase) CreateHostedSession(ctx context.Context, in CreateOrderInput) (HostedSessionOutput, error) {
	if u.provider == nil {
		return HostedSessionOutput{}, NewHTTPError(http.StatusNotImplemented, "payment provider not configured")
	}
	if err := validateCustomer(in.Customer); err != nil {
		return HostedSessionOutput{}, err
	}

	var orderID int64
	var pr pricing
	var sessionItems []payments.CheckoutLineItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		now := time.Now()

		lines, cart, err := u.assembleLines(ctx, r, in)
		if err != nil {
			return err
		}

		pr, err = u.price(ctx, r, lines, in, now)
		if err != nil {
			return err
		}

		//事前チェックだけ。確定減算は決済確認後（その間に売り切れることはあり得る）
		for _, l := range lines {
			if l.availableStock < l.quantity {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}
		}

		eta := now.AddDate(0, 0, deliveryDays(in.Customer.Country))
		orderID, err = r.Orders().Create(ctx, model.Order{
			Status:                model.OrderStatusPendingPayment,
			SubtotalCents:         pr.subtotalCents,
			DiscountCents:         pr.discountCents,
			ShippingCents:         pr.shippingCents,
			ShippingDiscountCents: pr.shippingDiscountCents,
			TotalCents:            pr.totalCents,
			DiscountCode:          pr.discountCode,
			ShippingCode:          pr.shippingCode,
			CustomerName:          strings.TrimSpace(in.Customer.Name),
			CustomerEmail:         strings.TrimSpace(in.Customer.Email),
			CustomerAddress:       strings.TrimSpace(in.Customer.Address),
			CustomerCountry:       strings.ToUpper(strings.TrimSpace(in.Customer.Country)),
			PaymentProvider:       model.PaymentProviderHosted,
			EstimatedDeliveryAt:   &eta,
			CreatedAt:             now,
			UpdatedAt:             now,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderLines().CreateBulk(ctx, orderID, toOrderLines(lines, now)); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderEvents().Create(ctx, model.OrderEvent{
			OrderID:   orderID,
			Status:    model.OrderStatusPendingPayment,
			CreatedAt: now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			Actor:        ActorCustomer(strings.TrimSpace(in.Customer.Email)),
			Action:       model.AuditActionCreateOrder,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			AfterJSON:    statusJSON(model.OrderStatusPendingPayment),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//カートの消費は決済確定を待たない（セッションを作った時点で専有）
		if cart != nil {
			if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}

		//Stripeには内訳ではなく合計1行で渡す（割引を負の明細にできないため）
		sessionItems = []payments.CheckoutLineItem{{
			Name:        "Order #" + strconv.FormatInt(orderID, 10),
			Quantity:    1,
			AmountCents: pr.totalCents,
		}}
		return nil
	})
	if err != nil {
		return HostedSessionOutput{}, err
	}

	//ここから先はDBトランザクションの外。失敗したら補償削除する。
	callCtx, cancel := context.WithTimeout(ctx, u.providerTimeout)
	defer cancel()

	sess, perr := u.provider.CreateCheckoutSession(callCtx, payments.CheckoutSessionRequest{
		OrderID:        orderID,
		CustomerEmail:  strings.TrimSpace(in.Customer.Email),
		Currency:       u.currency,
		SuccessURL:     u.successURL,
		CancelURL:      u.cancelURL,
		IdempotencyKey: uuid.NewString(),
		Items:          sessionItems,
	})
	if perr == nil {
		perr = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			return r.Orders().SetCheckoutSessionID(ctx, orderID, sess.ID)
		})
	}

	if perr != nil {
		//補償削除。PENDING_PAYMENTの孤児を残さない。
		if derr := u.rollbackHostedOrder(ctx, orderID); derr != nil {
			log.Errorf("checkout: rollback of order %d failed: %v", orderID, derr)
		}
		log.Errorf("checkout: provider session for order %d failed: %v", orderID, perr)
		return HostedSessionOutput{}, NewHTTPError(http.StatusInternalServerError, "payment provider error")
	}

	return HostedSessionOutput{
		SessionID:      sess.ID,
		OrderID:        orderID,
		PublishableKey: u.publishableKey,
		RedirectURL:    sess.RedirectURL,
	}, nil
}

// 補償削除。外部呼び出しはトランザクションに参加できないので、
// 失敗を観測してから別トランザクションで消す。
func (u *CheckoutUsecase) rollbackHostedOrder(ctx context.Context, orderID int64) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.OrderLines().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		if err := r.OrderEvents().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		return r.Orders().Delete(ctx, orderID)
	})
}

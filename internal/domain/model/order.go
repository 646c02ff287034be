package model

import "time"

type OrderStatus string

const (
	//ホスト型決済の未払い注文
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	//手動注文（作成した時点で確定）
	OrderStatusCreated   OrderStatus = "CREATED"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type PaymentProvider string

const (
	PaymentProviderManual PaymentProvider = "manual"
	PaymentProviderHosted PaymentProvider = "hosted"
)

// 金額は作成時に一度だけ計算して以後変えない。
// ライフサイクルのタイムスタンプだけが遷移で増えていく。
type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//金額の内訳（すべてセント単位）
	SubtotalCents         int64 `gorm:"not null" json:"subtotal_cents"`
	DiscountCents         int64 `gorm:"not null" json:"discount_cents"`
	ShippingCents         int64 `gorm:"not null" json:"shipping_cents"`
	ShippingDiscountCents int64 `gorm:"not null" json:"shipping_discount_cents"`
	TotalCents            int64 `gorm:"not null" json:"total_cents"`

	DiscountCode string `gorm:"type:varchar(64)" json:"discount_code"`
	ShippingCode string `gorm:"type:varchar(64)" json:"shipping_code"`

	//顧客スナップショット
	CustomerName    string `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail   string `gorm:"type:varchar(255);not null;index" json:"customer_email"`
	CustomerAddress string `gorm:"type:text;not null" json:"customer_address"`
	CustomerCountry string `gorm:"type:varchar(2);not null" json:"customer_country"`

	PaymentProvider PaymentProvider `gorm:"type:varchar(20);not null" json:"payment_provider"`

	//外部決済の参照（ホスト型のみ）
	CheckoutSessionID string `gorm:"type:varchar(255);index" json:"-"`
	PaymentRef        string `gorm:"type:varchar(255)" json:"-"`

	EstimatedDeliveryAt *time.Time `json:"estimated_delivery_at"`

	//遷移ごとに一度だけ立つ
	PaidAt            *time.Time `json:"paid_at"`
	FulfilledAt       *time.Time `json:"fulfilled_at"`
	ShippedAt         *time.Time `json:"shipped_at"`
	CanceledAt        *time.Time `json:"canceled_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	ReturnRequestedAt *time.Time `json:"return_requested_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

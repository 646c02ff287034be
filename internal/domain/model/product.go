package model

import (
	"time"

	"gorm.io/gorm"
)

// バリアントを持つ商品はBaseInventoryを使わない。
// 在庫の持ち方は (productId, variantId) の組でどちらか一方だけ。
type Product struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Title            string         `gorm:"type:varchar(255);not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	PriceCents       int64          `gorm:"not null" json:"price_cents"`
	ShippingFeeCents int64          `gorm:"not null;default:0" json:"shipping_fee_cents"`
	BaseInventory    int64          `gorm:"not null;default:0" json:"base_inventory"`
	IsActive         bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt        time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

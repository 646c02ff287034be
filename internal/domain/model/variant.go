package model

import "time"

// 商品バリアント（サイズ・色など）。PriceCentsがnilなら商品価格を使う。
type Variant struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64     `gorm:"not null;index" json:"product_id"`
	Title      string    `gorm:"type:varchar(255);not null" json:"title"`
	PriceCents *int64    `json:"price_cents"`
	Inventory  int64     `gorm:"not null;default:0" json:"inventory"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

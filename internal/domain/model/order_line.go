package model

import "time"

// 注文明細。注文時点の商品名と単価を必ずスナップショット。
type OrderLine struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64     `gorm:"not null;index" json:"order_id"`
	ProductID      int64     `gorm:"not null;index" json:"product_id"`
	VariantID      *int64    `gorm:"index" json:"variant_id"`
	TitleSnapshot  string    `gorm:"type:varchar(255);not null" json:"title_snapshot"`
	Quantity       int64     `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

package model

import "time"

// 注文タイムライン。遷移1回につき1件追記、更新はしない。
type OrderEvent struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64       `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime;index" json:"created_at"`
}

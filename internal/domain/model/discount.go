package model

import "time"

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
	//送料に対する割引率
	DiscountTypeShip DiscountType = "ship"
)

type DiscountKind string

const (
	DiscountKindItem DiscountKind = "item"
	DiscountKindShip DiscountKind = "ship"
)

// 割引コード。Codeは大文字で正規化して保存する。
// Kindが空の古いレコードはコード名のヒューリスティックで判定する（移行用）。
type Discount struct {
	ID               int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Kind             DiscountKind `gorm:"type:varchar(10)" json:"kind"`
	Type             DiscountType `gorm:"type:varchar(10);not null" json:"type"`
	Value            int64        `gorm:"not null" json:"value"`
	MinSubtotalCents int64        `gorm:"not null" json:"min_subtotal_cents"`
	ExpiresAt        *time.Time   `json:"expires_at"`
	DisabledAt       *time.Time   `json:"disabled_at"`
	UsageCount       int64        `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt        time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

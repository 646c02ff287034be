package model

import "time"

// 状態を変えた操作の種類。
type AuditAction string

const (
	AuditActionCreateOrder       AuditAction = "CREATE_ORDER"
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	AuditActionFinalizePayment   AuditAction = "FINALIZE_PAYMENT"
	AuditActionExpireSession     AuditAction = "EXPIRE_SESSION"
	AuditActionReturnRequest     AuditAction = "RETURN_REQUEST"
	AuditActionUpdateDiscount    AuditAction = "UPDATE_DISCOUNT"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceOrder    AuditResourceType = "order"
	AuditResourceDiscount AuditResourceType = "discount"
)

// 監査ログ（追記専用）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作主体。admin:<sub> / customer:<email> / webhook / system
	Actor string `gorm:"type:varchar(255);not null;index" json:"actor"`

	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`

	//変更前後をJSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

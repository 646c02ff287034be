package usecase

import (
	"encoding/json"

	"shop/internal/domain/model"
)

// 監査ログ用の操作主体表記
const (
	ActorWebhook = "webhook"
	ActorSystem  = "system"
)

func ActorAdmin(sub string) string {
	return "admin:" + sub
}

func ActorCustomer(email string) string {
	return "customer:" + email
}

// before/afterはstatusだけをJSONで残す
func statusJSON(s model.OrderStatus) string {
	return `{"status":"` + string(s) + `"}`
}

// 任意文字列をJSON文字列リテラルにする
func jsonString(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`, err
	}
	return string(b), nil
}

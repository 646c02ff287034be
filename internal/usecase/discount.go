package usecase

import (
	"regexp"
	"strings"
	"time"

	"shop/internal/domain/model"
)

// 割引は助言的な入力。引けなかったらappliedがfalseになるだけで、
// 注文自体は失敗させない。

var shipCodePattern = regexp.MustCompile(`(?i)SHIP`)

// コードは大文字・前後空白なしに正規化して扱う
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// 送料専用コードかどうか。Kindが入っていればそれが正。
// Kindが空の古いレコードだけ、コード名と値のヒューリスティックで判定する。
func isShipOnly(d model.Discount) bool {
	if d.Kind != "" {
		return d.Kind == model.DiscountKindShip
	}
	if d.Type == model.DiscountTypeShip {
		return true
	}
	return shipCodePattern.MatchString(d.Code) && d.Value == 100
}

// 無効化・期限切れ・最低注文額のチェック
func discountUsable(d model.Discount, now time.Time, subtotalCents int64) bool {
	if d.DisabledAt != nil {
		return false
	}
	if d.ExpiresAt != nil && d.ExpiresAt.Before(now) {
		return false
	}
	if subtotalCents < d.MinSubtotalCents {
		return false
	}
	return true
}

func clampPercent(v int64) int64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// 商品割引の額を解決する。送料専用コードはここでは無視。
func ResolveItemDiscount(d model.Discount, now time.Time, subtotalCents int64) (int64, bool) {
	if isShipOnly(d) {
		return 0, false
	}
	if !discountUsable(d, now, subtotalCents) {
		return 0, false
	}

	switch d.Type {
	case model.DiscountTypePercent:
		return subtotalCents * clampPercent(d.Value) / 100, true
	case model.DiscountTypeFixed:
		if d.Value > subtotalCents {
			return subtotalCents, true
		}
		if d.Value < 0 {
			return 0, true
		}
		return d.Value, true
	default:
		return 0, false
	}
}

// 送料割引の額を解決する。送料専用コード以外はここでは無視。
// 値は送料に対するパーセント。
func ResolveShippingDiscount(d model.Discount, now time.Time, subtotalCents int64, shippingCents int64) (int64, bool) {
	if !isShipOnly(d) {
		return 0, false
	}
	if !discountUsable(d, now, subtotalCents) {
		return 0, false
	}

	amount := shippingCents * clampPercent(d.Value) / 100
	if amount > shippingCents {
		amount = shippingCents
	}
	return amount, true
}

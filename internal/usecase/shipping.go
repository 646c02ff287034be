package usecase

import "strings"

// 配送ゾーン
type ShippingZone string

const (
	ZoneDomestic ShippingZone = "DOM"
	ZoneNear     ShippingZone = "NEAR"
	ZoneIntl     ShippingZone = "INTL"
)

const (
	//国内はこの額以上で送料無料
	domesticFreeThresholdCents int64 = 15000

	domesticRateCents int64 = 600
	nearRateCents     int64 = 1500
	intlRateCents     int64 = 2500

	//PHだけは金額・明細に関係なく一律
	flatOverrideCountry           = "PH"
	flatOverrideRateCents   int64 = 350
)

// 国内扱いの市場（自国＋優遇市場）
var domesticCountries = map[string]bool{
	"JP": true,
	"SG": true,
}

// 近隣市場
var nearCountries = map[string]bool{
	"KR": true,
	"TW": true,
	"HK": true,
}

func ClassifyZone(countryCode string) ShippingZone {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if domesticCountries[cc] {
		return ZoneDomestic
	}
	if nearCountries[cc] {
		return ZoneNear
	}
	return ZoneIntl
}

func IsFlatOverrideCountry(countryCode string) bool {
	return strings.ToUpper(strings.TrimSpace(countryCode)) == flatOverrideCountry
}

// 送料 = ゾーン基本料 + 商品ごとの送料加算。
// PHは一律で、送料無料しきい値も加算も効かない。
func QuoteShipping(subtotalCents int64, countryCode string, perItemFeesCents int64) int64 {
	if IsFlatOverrideCountry(countryCode) {
		return flatOverrideRateCents
	}

	var base int64
	switch ClassifyZone(countryCode) {
	case ZoneDomestic:
		if subtotalCents >= domesticFreeThresholdCents {
			base = 0
		} else {
			base = domesticRateCents
		}
	case ZoneNear:
		base = nearRateCents
	default:
		base = intlRateCents
	}

	return base + perItemFeesCents
}

// お届け目安（ゾーンで決める）
func deliveryDays(countryCode string) int {
	if IsFlatOverrideCountry(countryCode) {
		return 14
	}
	switch ClassifyZone(countryCode) {
	case ZoneDomestic:
		return 3
	case ZoneNear:
		return 7
	default:
		return 14
	}
}

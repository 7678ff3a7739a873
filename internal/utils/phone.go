package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"rd-topup-api/internal/constant"
)

// NormalizeWhatsApp 规范化为无符号的国家码前缀号码（62812...）
// 0 开头按默认地区解析，其余视为已带国家码。
func NormalizeWhatsApp(raw, region string) (string, error) {
	digits := DigitsOnly(raw)
	if digits == "" {
		return "", constant.Validation("whatsapp number is required")
	}

	var input string
	if strings.HasPrefix(digits, "0") {
		input = digits
	} else {
		input = "+" + digits
	}
	num, err := libphonenumber.Parse(input, region)
	if err != nil {
		return "", constant.Validation("whatsapp number invalid: %v", err)
	}
	if cc := libphonenumber.GetCountryCodeForRegion(region); cc != 0 && int(num.GetCountryCode()) != cc {
		return "", constant.Validation("whatsapp number must use country code %d", cc)
	}
	out := strings.TrimPrefix(libphonenumber.Format(num, libphonenumber.E164), "+")
	if len(out) < 10 || len(out) > 16 {
		return "", constant.Validation("whatsapp number length invalid")
	}
	return out, nil
}

// DigitsOnly 去掉所有非数字字符
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

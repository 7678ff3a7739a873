package utils

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// GatewaySignature Midtrans 回调签名：sha512(order_id + status_code + gross_amount + serverKey)
func GatewaySignature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifyGatewaySignature 常量时间比较，大小写不敏感
func VerifyGatewaySignature(orderID, statusCode, grossAmount, serverKey, received string) bool {
	if received == "" || serverKey == "" {
		return false
	}
	expected := GatewaySignature(orderID, statusCode, grossAmount, serverKey)
	got := strings.ToLower(strings.TrimSpace(received))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

package rediskey

// SettingsKey 站点配置 hash
func SettingsKey(prefix string) string {
	return prefix + ":system:settings"
}

// GatewaySuccessRateKey 网关成功率
func GatewaySuccessRateKey(prefix, gateway string) string {
	return prefix + ":gateway:success_rate:" + gateway
}

// GatewayDisabledKey 网关熔断标记
func GatewayDisabledKey(prefix, gateway string) string {
	return prefix + ":gateway:disabled:" + gateway
}

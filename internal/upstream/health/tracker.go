package health

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	rediskey "rd-topup-api/internal/types/redis-key"
)

// Tracker 网关成功率熔断；状态放在 redis，多实例共享
type Tracker struct {
	Redis     *redis.Client // 为 nil 时永不熔断
	Strategy  SuccessRateStrategy
	Threshold float64 // 熔断阈值，例如 30.0
	TTL       time.Duration
	Prefix    string
	Gateway   string
}

// Allow 未熔断时返回 true；redis 异常时放行
func (t *Tracker) Allow(ctx context.Context) bool {
	if t == nil || t.Redis == nil {
		return true
	}
	val, err := t.Redis.Get(ctx, rediskey.GatewayDisabledKey(t.Prefix, t.Gateway)).Int()
	return !(err == nil && val == 1)
}

// Record 记录一次调用结果，返回本次是否触发熔断
func (t *Tracker) Record(ctx context.Context, success bool) (bool, error) {
	if t == nil || t.Redis == nil {
		return false, nil
	}
	key := rediskey.GatewaySuccessRateKey(t.Prefix, t.Gateway)

	currentRate, err := t.Redis.Get(ctx, key).Float64()
	if err != nil {
		currentRate = 100.0
	}

	newRate := t.Strategy.Update(currentRate, success)
	tripped := false
	if newRate < t.Threshold {
		// 熔断标记
		if err := t.Redis.Set(ctx, rediskey.GatewayDisabledKey(t.Prefix, t.Gateway), 1, t.TTL).Err(); err != nil {
			return false, err
		}
		tripped = true
	}

	// 更新成功率缓存
	return tripped, t.Redis.Set(ctx, key, newRate, t.TTL).Err()
}

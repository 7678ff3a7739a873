package health

import "strings"

type SuccessRateStrategy interface {
	Update(current float64, success bool) float64
}

// 趋势平滑，适合高频场景
type EWMAStrategy struct {
	Alpha float64 // e.g. 0.1
}

func (e *EWMAStrategy) Update(current float64, success bool) float64 {
	var value float64
	if success {
		value = 100
	}
	return e.Alpha*value + (1-e.Alpha)*current
}

// 固定步长加减
type SlidingStrategy struct {
	StepUp   float64
	StepDown float64
}

func (s *SlidingStrategy) Update(current float64, success bool) float64 {
	if success {
		return min(current+s.StepUp, 100)
	}
	return max(current-s.StepDown, 0)
}

// 衰减策略 每次失败按 Factor 衰减，成功不回升
type DecayStrategy struct {
	Factor float64 // e.g. 0.95
}

func (d *DecayStrategy) Update(current float64, success bool) float64 {
	if success {
		return current
	}
	return max(current*d.Factor, 0)
}

// StrategyByName 配置项 gateway.healthStrategy
func StrategyByName(name string) SuccessRateStrategy {
	switch strings.ToLower(name) {
	case "sliding":
		return &SlidingStrategy{StepUp: 5, StepDown: 20}
	case "decay":
		return &DecayStrategy{Factor: 0.8}
	default:
		return &EWMAStrategy{Alpha: 0.2}
	}
}

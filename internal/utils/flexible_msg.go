package utils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FlexibleMsg 支持 string / object / array 任意结构的错误信息
// Midtrans 的 error_messages 是数组，偶尔是字符串。
type FlexibleMsg struct {
	Text string
}

func (m *FlexibleMsg) UnmarshalJSON(data []byte) error {
	// 尝试解析为字符串
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.Text = s
		return nil
	}

	// 字符串数组直接拼接
	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		m.Text = strings.Join(strs, "; ")
		return nil
	}

	// 尝试解析为 map 对象
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			switch val := obj[k].(type) {
			case string:
				parts = append(parts, fmt.Sprintf("%s: %s", k, val))
			default:
				b, _ := json.Marshal(val)
				parts = append(parts, fmt.Sprintf("%s: %s", k, string(b)))
			}
		}
		m.Text = strings.Join(parts, "; ")
		return nil
	}

	// 全部失败
	m.Text = string(data)
	return nil
}

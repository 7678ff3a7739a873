package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Generator 订单号生成器: {prefix}-{snowflake}-{8位随机hex}
// snowflake 保证唯一，随机后缀保证不可猜测。
type Generator struct {
	prefix string
	node   *snowflake.Node
}

// NewGenerator 初始化 Snowflake 节点（支持多实例部署，nodeID 0~1023）
func NewGenerator(prefix string, nodeID int64) (*Generator, error) {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("InitNode failed: %w", err)
	}
	log.Printf("[IDGen] Snowflake node initialized: nodeID=%d", nodeID)
	return &Generator{prefix: prefix, node: n}, nil
}

// NewOrderID 生成外部可见订单号
func (g *Generator) NewOrderID() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s", g.prefix, g.node.Generate().Int64(), hex.EncodeToString(buf)), nil
}

// CheckSystemClock 时间回拨保护机制,snowflake 本身不防止时间回拨
func CheckSystemClock(stop <-chan struct{}) {
	last := time.Now().UnixMilli()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			current := now.UnixMilli()
			if current < last {
				log.Fatalf("[IDGen] System clock moved backward: last=%d, now=%d", last, current)
			}
			last = current
		}
	}
}

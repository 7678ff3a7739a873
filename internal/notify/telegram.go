package notify

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/utils"
)

type TelegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
	Parse  string `json:"parse_mode"`
}

// Telegram 运维告警；未配置 token/chat 时静默
type Telegram struct {
	cfg    config.TelegramCfg
	client *http.Client
	log    logrus.FieldLogger
}

func NewTelegram(cfg config.TelegramCfg, log logrus.FieldLogger) *Telegram {
	return &Telegram{cfg: cfg, client: &http.Client{Timeout: 10 * time.Second}, log: log}
}

func (t *Telegram) Enabled() bool {
	return t != nil && t.cfg.BotToken != "" && t.cfg.ChatID != ""
}

func (t *Telegram) SendTelegramMessage(ctx context.Context, content string) error {
	msg := TelegramMessage{
		ChatID: t.cfg.ChatID,
		Text:   content,
		Parse:  "MarkdownV2",
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.cfg.APIBase, "/"), t.cfg.BotToken)
	status, body, err := utils.HttpPostJson(ctx, t.client, url, msg, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("telegram http %d: %s", status, string(body))
	}
	return nil
}

// Alert 异步发送告警（标题 + 字段，按 key 排序）
func (t *Telegram) Alert(title string, fields map[string]string) {
	if !t.Enabled() {
		return
	}
	content := formatAlert(title, fields)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.SendTelegramMessage(ctx, content); err != nil {
			t.log.Warnf("[Telegram] ⚠️ 消息发送失败: %v", err)
		}
	}()
}

func formatAlert(title string, fields map[string]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*%s*\n", escapeMarkdown(title)))
	sb.WriteString(fmt.Sprintf("*time:* %s\n", escapeMarkdown(time.Now().Format("2006-01-02 15:04:05"))))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := fields[k]; v != "" {
			sb.WriteString(fmt.Sprintf("%s: %s\n", escapeMarkdown(k), escapeMarkdown(v)))
		}
	}
	return sb.String()
}

// escapeMarkdown 转义 Telegram Markdown V2 特殊字符
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"-", "\\-",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)
	return replacer.Replace(s)
}

package system

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rd-topup-api/internal/config"
	"rd-topup-api/internal/constant"
	mainmodel "rd-topup-api/internal/model/main"
	rediskey "rd-topup-api/internal/types/redis-key"
)

// 可写入的配置键
const (
	KeySiteName                 = "site_name"
	KeyBrandTagline             = "brand_tagline"
	KeyMidtransIsProduction     = "midtrans_is_production"
	KeyMidtransServerKey        = "midtrans_server_key"
	KeyMidtransClientKey        = "midtrans_client_key"
	KeyWhatsAppEnabled          = "whatsapp_enabled"
	KeyWhatsAppTemplatePay      = "whatsapp_template_pay"
	KeyWhatsAppTemplateDone     = "whatsapp_template_done"
	KeyWhatsAppTemplateRejected = "whatsapp_template_rejected"
)

var writableKeys = []string{
	KeySiteName, KeyBrandTagline,
	KeyMidtransIsProduction, KeyMidtransServerKey, KeyMidtransClientKey,
	KeyWhatsAppEnabled, KeyWhatsAppTemplatePay, KeyWhatsAppTemplateDone, KeyWhatsAppTemplateRejected,
}

// 缓存已加载标记，空表也能命中缓存
const loadedField = "__loaded"

// Settings 运行时配置快照
type Settings struct {
	SiteName                 string `json:"site_name"`
	BrandTagline             string `json:"brand_tagline"`
	MidtransIsProduction     bool   `json:"midtrans_is_production"`
	MidtransServerKey        string `json:"midtrans_server_key"`
	MidtransClientKey        string `json:"midtrans_client_key"`
	WhatsAppEnabled          bool   `json:"whatsapp_enabled"`
	WhatsAppTemplatePay      string `json:"whatsapp_template_pay"`
	WhatsAppTemplateDone     string `json:"whatsapp_template_done"`
	WhatsAppTemplateRejected string `json:"whatsapp_template_rejected"`
}

// SettingsService settings 表 + redis hash 读穿缓存，写入后显式失效
type SettingsService struct {
	db       *gorm.DB
	rdb      *redis.Client // 可为 nil
	key      string
	defaults config.GatewayCfg
	log      logrus.FieldLogger
}

func NewSettingsService(db *gorm.DB, rdb *redis.Client, redisPrefix string, gw config.GatewayCfg, log logrus.FieldLogger) *SettingsService {
	return &SettingsService{
		db:       db,
		rdb:      rdb,
		key:      rediskey.SettingsKey(redisPrefix),
		defaults: gw,
		log:      log,
	}
}

// Get 读取配置；缓存异常时直接读库
func (s *SettingsService) Get(ctx context.Context) (Settings, error) {
	raw, err := s.raw(ctx)
	if err != nil {
		return Settings{}, err
	}
	return s.build(raw), nil
}

func (s *SettingsService) raw(ctx context.Context) (map[string]string, error) {
	if s.rdb != nil {
		cached, err := s.rdb.HGetAll(ctx, s.key).Result()
		if err == nil && cached[loadedField] != "" {
			delete(cached, loadedField)
			return cached, nil
		}
		if err != nil {
			s.log.Warnf("[Settings] ⚠️ 读取缓存失败: %v", err)
		}
	}

	var rows []mainmodel.Setting
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}

	if s.rdb != nil {
		fields := make(map[string]interface{}, len(out)+1)
		for k, v := range out {
			fields[k] = v
		}
		fields[loadedField] = "1"
		if err := s.rdb.HSet(ctx, s.key, fields).Err(); err != nil {
			s.log.Warnf("[Settings] ⚠️ 写入缓存失败: %v", err)
		}
	}
	return out, nil
}

func (s *SettingsService) build(raw map[string]string) Settings {
	st := Settings{
		SiteName:                 raw[KeySiteName],
		BrandTagline:             raw[KeyBrandTagline],
		MidtransIsProduction:     s.defaults.IsProduction,
		MidtransServerKey:        s.defaults.ServerKey,
		MidtransClientKey:        s.defaults.ClientKey,
		WhatsAppTemplatePay:      raw[KeyWhatsAppTemplatePay],
		WhatsAppTemplateDone:     raw[KeyWhatsAppTemplateDone],
		WhatsAppTemplateRejected: raw[KeyWhatsAppTemplateRejected],
	}
	if v, ok := raw[KeyMidtransIsProduction]; ok && v != "" {
		st.MidtransIsProduction = parseBool(v)
	}
	if v := raw[KeyMidtransServerKey]; v != "" {
		st.MidtransServerKey = v
	}
	if v := raw[KeyMidtransClientKey]; v != "" {
		st.MidtransClientKey = v
	}
	st.WhatsAppEnabled = parseBool(raw[KeyWhatsAppEnabled])
	return st
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

// Save 只写白名单键，写完删除缓存
func (s *SettingsService) Save(ctx context.Context, values map[string]string) error {
	for k := range values {
		if !isWritable(k) {
			return constant.Validation("setting %q is not writable", k)
		}
	}
	rows := make([]mainmodel.Setting, 0, len(values))
	for _, k := range writableKeys {
		v, ok := values[k]
		if !ok {
			continue
		}
		v = strings.TrimSpace(v)
		// 掩码值原样回传时视为未修改
		if k == KeyMidtransServerKey && strings.HasSuffix(v, "***") {
			continue
		}
		if k == KeyMidtransIsProduction || k == KeyWhatsAppEnabled {
			v = strconv.FormatBool(parseBool(v))
		}
		rows = append(rows, mainmodel.Setting{Key: k, Value: v})
	}
	if len(rows) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return err
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate 删除缓存
func (s *SettingsService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		s.log.Errorf("[Settings] ❌ 删除缓存失败: %v", err)
	}
}

// Masked 后台展示用，server key 只露前 6 位
func (s *SettingsService) Masked(ctx context.Context) (Settings, error) {
	st, err := s.Get(ctx)
	if err != nil {
		return st, err
	}
	st.MidtransServerKey = MaskSecret(st.MidtransServerKey)
	return st, nil
}

func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 6 {
		return v[:1] + "***"
	}
	return v[:6] + "***"
}

func isWritable(k string) bool {
	for _, w := range writableKeys {
		if w == k {
			return true
		}
	}
	return false
}

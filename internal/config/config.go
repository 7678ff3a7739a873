package config

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerCfg struct {
	Port           string   `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	PublicBaseURL  string   `mapstructure:"publicBaseUrl"`
	TrustedProxies []string `mapstructure:"trustedProxies"`
}
type MysqlCfg struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	AutoMigrate  bool   `mapstructure:"autoMigrate"`
	LogSQL       bool   `mapstructure:"logSql"`
	SQLiteFile   string `mapstructure:"sqliteFile"` // host 为空时使用本地 sqlite（开发用）
}
type RabbitCfg struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}
type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}
type SecurityCfg struct {
	AdminToken string `mapstructure:"adminToken"`
}
type OrderCfg struct {
	MaxGrossAmount int64  `mapstructure:"maxGrossAmount"`
	MaxQty         int    `mapstructure:"maxQty"`
	IDPrefix       string `mapstructure:"idPrefix"`
	SnowflakeNode  int64  `mapstructure:"snowflakeNode"`
}

// GatewayCfg Midtrans defaults; the settings table overrides keys and mode at runtime.
type GatewayCfg struct {
	IsProduction      bool          `mapstructure:"isProduction"`
	ServerKey         string        `mapstructure:"serverKey"`
	ClientKey         string        `mapstructure:"clientKey"`
	SnapSandboxURL    string        `mapstructure:"snapSandboxUrl"`
	SnapProductionURL string        `mapstructure:"snapProductionUrl"`
	CoreSandboxURL    string        `mapstructure:"coreSandboxUrl"`
	CoreProductionURL string        `mapstructure:"coreProductionUrl"`
	CreateTimeout     time.Duration `mapstructure:"createTimeout"`
	StatusTimeout     time.Duration `mapstructure:"statusTimeout"`
	HealthStrategy    string        `mapstructure:"healthStrategy"` // ewma | sliding | decay
	HealthThreshold   float64       `mapstructure:"healthThreshold"`
	HealthTTL         time.Duration `mapstructure:"healthTtl"`
}

type WhatsAppCfg struct {
	StoreDialect     string        `mapstructure:"storeDialect"`
	StoreDSN         string        `mapstructure:"storeDsn"`
	ReconnectDelay   time.Duration `mapstructure:"reconnectDelay"`
	HandshakeTimeout time.Duration `mapstructure:"handshakeTimeout"`
	SendTimeout      time.Duration `mapstructure:"sendTimeout"`
	DefaultRegion    string        `mapstructure:"defaultRegion"`
	AutoStart        bool          `mapstructure:"autoStart"`
	PairDisplayName  string        `mapstructure:"pairDisplayName"`
}

type TelegramCfg struct {
	BotToken string `mapstructure:"botToken"`
	ChatID   string `mapstructure:"chatId"`
	APIBase  string `mapstructure:"apiBase"`
}

type LogCfg struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type Root struct {
	Server   ServerCfg   `mapstructure:"server"`
	Mysql    MysqlCfg    `mapstructure:"mysql"`
	RabbitMQ RabbitCfg   `mapstructure:"rabbitmq"`
	Redis    RedisCfg    `mapstructure:"redis"`
	Security SecurityCfg `mapstructure:"security"`
	Order    OrderCfg    `mapstructure:"order"`
	Gateway  GatewayCfg  `mapstructure:"gateway"`
	WhatsApp WhatsAppCfg `mapstructure:"whatsapp"`
	Telegram TelegramCfg `mapstructure:"telegram"`
	Log      LogCfg      `mapstructure:"log"`
}

var C Root

func Init() {
	env := flag.String("env", "dev", "config env: dev|prod")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := Load("config/config." + *env + ".yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	C = *cfg
}

// Load reads a yaml file; environment variables win over file values (GATEWAY_SERVERKEY etc.).
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var r Root
	if err := v.Unmarshal(&r); err != nil {
		return nil, err
	}
	r.applyDefaults()
	return &r, nil
}

func (r *Root) applyDefaults() {
	// sane defaults
	if strings.TrimSpace(r.Server.Port) == "" {
		r.Server.Port = "3000"
	}
	if r.Mysql.Charset == "" {
		r.Mysql.Charset = "utf8mb4"
	}
	if r.RabbitMQ.Exchange == "" {
		r.RabbitMQ.Exchange = "order_events"
	}
	if r.Redis.Prefix == "" {
		r.Redis.Prefix = "rd"
	}
	if r.Order.MaxGrossAmount <= 0 {
		r.Order.MaxGrossAmount = 2_000_000_000
	}
	if r.Order.MaxQty <= 0 {
		r.Order.MaxQty = 999
	}
	if r.Order.IDPrefix == "" {
		r.Order.IDPrefix = "RD"
	}
	if r.Gateway.SnapSandboxURL == "" {
		r.Gateway.SnapSandboxURL = "https://app.sandbox.midtrans.com"
	}
	if r.Gateway.SnapProductionURL == "" {
		r.Gateway.SnapProductionURL = "https://app.midtrans.com"
	}
	if r.Gateway.CoreSandboxURL == "" {
		r.Gateway.CoreSandboxURL = "https://api.sandbox.midtrans.com"
	}
	if r.Gateway.CoreProductionURL == "" {
		r.Gateway.CoreProductionURL = "https://api.midtrans.com"
	}
	if r.Gateway.CreateTimeout <= 0 {
		r.Gateway.CreateTimeout = 10 * time.Second
	}
	if r.Gateway.StatusTimeout <= 0 {
		r.Gateway.StatusTimeout = 8 * time.Second
	}
	if r.Gateway.HealthThreshold <= 0 {
		r.Gateway.HealthThreshold = 30
	}
	if r.Gateway.HealthTTL <= 0 {
		r.Gateway.HealthTTL = time.Minute
	}
	if r.WhatsApp.StoreDialect == "" {
		r.WhatsApp.StoreDialect = "pgx"
	}
	if r.WhatsApp.ReconnectDelay <= 0 {
		r.WhatsApp.ReconnectDelay = 2 * time.Second
	}
	if r.WhatsApp.HandshakeTimeout <= 0 {
		r.WhatsApp.HandshakeTimeout = 30 * time.Second
	}
	if r.WhatsApp.SendTimeout <= 0 {
		r.WhatsApp.SendTimeout = 15 * time.Second
	}
	if r.WhatsApp.DefaultRegion == "" {
		r.WhatsApp.DefaultRegion = "ID"
	}
	if r.WhatsApp.PairDisplayName == "" {
		r.WhatsApp.PairDisplayName = "Chrome (Linux)"
	}
	if r.Telegram.APIBase == "" {
		r.Telegram.APIBase = "https://api.telegram.org"
	}
	if r.Log.Dir == "" {
		r.Log.Dir = "./logs"
	}
	if r.Log.Level == "" {
		r.Log.Level = "info"
	}
}

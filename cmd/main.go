package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"rd-topup-api/internal/callback"
	"rd-topup-api/internal/config"
	"rd-topup-api/internal/dal"
	"rd-topup-api/internal/event"
	"rd-topup-api/internal/handler"
	"rd-topup-api/internal/idgen"
	"rd-topup-api/internal/logger"
	"rd-topup-api/internal/middleware"
	"rd-topup-api/internal/model"
	"rd-topup-api/internal/mq"
	"rd-topup-api/internal/notify"
	"rd-topup-api/internal/repo"
	"rd-topup-api/internal/service"
	"rd-topup-api/internal/system"
	"rd-topup-api/internal/upstream"
	"rd-topup-api/internal/upstream/health"
	"rd-topup-api/internal/wa"
)

func main() {
	// load config env
	config.Init()
	cfg := config.C

	log := logger.NewLogger(cfg.Log.Dir, "app", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init infra
	db := openDB(cfg.Mysql, log)
	if cfg.Mysql.AutoMigrate || cfg.Mysql.Host == "" {
		if err := model.AutoMigrate(db); err != nil {
			log.Fatalf("[DB] migrate failed: %v", err)
		}
	}
	rdb := openRedis(cfg.Redis, log)

	var pub event.Publisher = event.NopPublisher{}
	var rabbit *dal.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		r, err := dal.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			log.Warnf("[MQ] ⚠️ RabbitMQ 不可用，事件不发布: %v", err)
		} else {
			rabbit = r
			pub = mq.NewAmqpPublisher(r)
		}
	}

	// idgen
	ids, err := idgen.NewGenerator(cfg.Order.IDPrefix, cfg.Order.SnowflakeNode)
	if err != nil {
		log.Fatalf("[IDGen] %v", err)
	}
	go idgen.CheckSystemClock(ctx.Done())

	if err := middleware.RegisterValidators(cfg.WhatsApp.DefaultRegion); err != nil {
		log.Fatalf("register validators: %v", err)
	}

	// stores
	orders := repo.NewOrderRepo(db, ids, cfg.Order.MaxGrossAmount)
	products := repo.NewProductRepo(db)
	stats := repo.NewStatsRepo(db)
	settings := system.NewSettingsService(db, rdb, cfg.Redis.Prefix, cfg.Gateway, log)

	// outbound
	gateway := upstream.NewMidtrans(cfg.Gateway)
	telegram := notify.NewTelegram(cfg.Telegram, log)

	var dialer wa.Dialer = wa.UnconfiguredDialer{}
	if cfg.WhatsApp.StoreDSN != "" {
		d, err := wa.NewWhatsmeowDialer(ctx, cfg.WhatsApp.StoreDialect, cfg.WhatsApp.StoreDSN, cfg.WhatsApp.PairDisplayName, log)
		if err != nil {
			log.Fatalf("[WA] open session store failed: %v", err)
		}
		dialer = d
	} else {
		log.Warn("[WA] ⚠️ whatsapp.storeDsn 未配置，WhatsApp 不可用")
	}
	manager := wa.NewManager(dialer, wa.Options{
		ReconnectDelay:   cfg.WhatsApp.ReconnectDelay,
		HandshakeTimeout: cfg.WhatsApp.HandshakeTimeout,
		SendTimeout:      cfg.WhatsApp.SendTimeout,
	}, log)
	go autoStartWhatsApp(ctx, manager, settings, cfg.WhatsApp.AutoStart, log)

	// services
	dispatcher := notify.NewDispatcher(orders, manager, settings, log)
	payments := service.NewPaymentService(orders, dispatcher, pub, log)
	statusSvc := service.NewStatusService(orders, gateway, settings, payments, log).WithHealth(&health.Tracker{
		Redis:     rdb,
		Strategy:  health.StrategyByName(cfg.Gateway.HealthStrategy),
		Threshold: cfg.Gateway.HealthThreshold,
		TTL:       cfg.Gateway.HealthTTL,
		Prefix:    cfg.Redis.Prefix,
		Gateway:   "midtrans",
	})
	checkout := service.NewOrderService(orders, products, gateway, settings, pub, telegram,
		cfg.Order, cfg.Server.PublicBaseURL, cfg.WhatsApp.DefaultRegion, log)
	fulfillment := service.NewFulfillmentService(orders, dispatcher, pub, log)
	admin := service.NewAdminService(orders, stats)
	webhook := callback.NewMidtransCallback(payments, settings, telegram, log)

	// start consumers
	if rabbit != nil {
		go mq.NewStaffFeedConsumer(rabbit, telegram, log).Run(ctx)
	}

	// http server
	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handler.NewRouter(handler.Handlers{
		Order:   handler.NewOrderHandler(checkout, statusSvc),
		Webhook: handler.NewWebhookHandler(webhook),
		Admin:   handler.NewAdminHandler(admin, fulfillment, settings),
		WA:      handler.NewWAHandler(manager, settings, log),
	}, cfg.Security.AdminToken, cfg.Server.TrustedProxies, log)

	srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: r}
	go func() {
		log.Infof("listening %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http shutdown: %v", err)
	}
	manager.Close()
	if rabbit != nil {
		_ = rabbit.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// openDB mysql.host 为空时退回本地 sqlite
func openDB(c config.MysqlCfg, log logrus.FieldLogger) *gorm.DB {
	if c.Host == "" {
		file := c.SQLiteFile
		if file == "" {
			file = "rd-topup.db"
		}
		db, err := dal.OpenSQLite(file)
		if err != nil {
			log.Fatalf("[DB] sqlite open failed: %v", err)
		}
		log.Warnf("[DB] ⚠️ mysql.host 未配置，使用 sqlite %s", file)
		return db
	}
	db, err := dal.OpenMySQL(c)
	if err != nil {
		log.Fatalf("[DB] mysql connect failed: %v", err)
	}
	log.Info("[DB] ✅ mysql connected")
	return db
}

func openRedis(c config.RedisCfg, log logrus.FieldLogger) *redis.Client {
	if c.Addr == "" {
		log.Warn("[Redis] ⚠️ 未配置，配置读取不走缓存")
		return nil
	}
	rdb, err := dal.OpenRedis(c)
	if err != nil {
		log.Warnf("[Redis] ⚠️ 连接失败，配置读取不走缓存: %v", err)
		return nil
	}
	return rdb
}

// autoStartWhatsApp 已开启 WhatsApp 且本地有凭据时恢复会话
func autoStartWhatsApp(ctx context.Context, m *wa.Manager, settings *system.SettingsService, enabled bool, log logrus.FieldLogger) {
	if !enabled {
		return
	}
	st, err := settings.Get(ctx)
	if err != nil {
		log.Warnf("[WA] ⚠️ 读取配置失败，跳过自动启动: %v", err)
		return
	}
	if !st.WhatsAppEnabled {
		return
	}
	if _, err := m.AutoStart(ctx); err != nil {
		log.Warnf("[WA] ⚠️ 自动启动失败: %v", err)
	}
}

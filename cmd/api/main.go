package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gofiber/adaptor/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/config"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/handler"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/infra/postgresql"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/infra/postgresql/migrations"
	infraredis "github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/infra/redis"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/observability"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/provider"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/service"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/sink"
	"github.com/ferramentas-mnz/estetica-whatsapp-api-oficial/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	var (
		store sink.Sink
		sqlDB *sql.DB
	)
	switch cfg.SinkDriver {
	case config.SinkDriverPostgres:
		db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("postgres initialization failed", zap.Error(err))
		}
		if err := migrations.Migrate(db); err != nil {
			logger.Fatal("database migrations failed", zap.Error(err))
		}
		sqlDB, err = db.DB()
		if err != nil {
			logger.Fatal("postgres underlying db init failed", zap.Error(err))
		}
		defer sqlDB.Close()

		store, err = sink.NewPostgresSink(db)
		if err != nil {
			logger.Fatal("postgres sink init failed", zap.Error(err))
		}
	default:
		store, err = sink.NewSupabaseSink(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			logger.Fatal("supabase sink init failed", zap.Error(err))
		}
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		store, err = sink.NewDedupGuard(store, rdb, 0, logger)
		if err != nil {
			logger.Fatal("dedup guard init failed", zap.Error(err))
		}
	}

	sender, err := provider.NewWhatsAppClient(cfg.GraphBaseURL, cfg.WhatsAppPhoneID, cfg.WhatsAppToken)
	if err != nil {
		logger.Fatal("whatsapp client init failed", zap.Error(err))
	}

	inbound, err := service.NewInboundService(store, logger, metrics)
	if err != nil {
		logger.Fatal("inbound service init failed", zap.Error(err))
	}

	outbound, err := service.NewOutboundService(sender, store, cfg.DefaultCountryCode, logger, metrics)
	if err != nil {
		logger.Fatal("outbound service init failed", zap.Error(err))
	}

	app := transport.NewApp(logger, metrics)

	handler.RegisterStatusRoutes(app, cfg.WhatsAppPhoneID)
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterWebhookRoutes(app, inbound, cfg.WebhookVerifyToken, logger); err != nil {
		logger.Fatal("webhook routes registration failed", zap.Error(err))
	}
	if err := handler.RegisterMessageRoutes(app, outbound, logger); err != nil {
		logger.Fatal("message routes registration failed", zap.Error(err))
	}

	logger.Info("whatsapp relay api started",
		zap.Int("port", cfg.Port),
		zap.String("sink", cfg.SinkDriver),
		zap.Bool("dedup", rdb != nil),
	)

	if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

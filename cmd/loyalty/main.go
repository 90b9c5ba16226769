package main

import (
	"log"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"campusgrill-loyalty/internal/httpapi"
	"campusgrill-loyalty/pkg/asynq"
	"campusgrill-loyalty/pkg/config"
	"campusgrill-loyalty/pkg/db"
	"campusgrill-loyalty/pkg/health"
	"campusgrill-loyalty/pkg/logger"
	"campusgrill-loyalty/pkg/redis"
	"campusgrill-loyalty/pkg/sequence"
	"campusgrill-loyalty/pkg/server"
	"campusgrill-loyalty/services/badge"
	"campusgrill-loyalty/services/challenge"
	"campusgrill-loyalty/services/coupon"
	"campusgrill-loyalty/services/ledger"
	"campusgrill-loyalty/services/member"
	"campusgrill-loyalty/services/orchestrator"
	"campusgrill-loyalty/services/order"
	"campusgrill-loyalty/services/tier"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		asynq.Client,
		asynq.Server,
		sequence.Module,
		fx.Provide(
			provideTracerProvider,
			provideSnowflakeNode,
			provideLocation,
		),
		member.Module,
		order.Module,
		ledger.Module,
		tier.Module,
		challenge.Module,
		badge.Module,
		coupon.Module,
		orchestrator.Module,
		health.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
		fx.Invoke(
			autoMigrate,
			orchestrator.RegisterTaskHandlers,
			challenge.StartScheduler,
		),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func provideLocation(cfg *config.Config) (*time.Location, error) {
	return cfg.Loyalty.Location()
}

func autoMigrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&member.Member{},
		&order.Order{},
		&order.OrderItem{},
		&ledger.PointTransaction{},
		&coupon.Redemption{},
		&coupon.Coupon{},
		&challenge.DailyBonus{},
		&challenge.WeeklyChallenge{},
		&challenge.Progress{},
		&badge.Badge{},
		&badge.MemberBadge{},
	)
}

package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/db"
	"entitlement-controlplane/pkg/featureflags"
	"entitlement-controlplane/pkg/gen"
	"entitlement-controlplane/pkg/hashistack/secretmanager"
	"entitlement-controlplane/pkg/logger"
	"entitlement-controlplane/pkg/otelcol"
	"entitlement-controlplane/pkg/profiling"
	"entitlement-controlplane/pkg/redis"
	"entitlement-controlplane/pkg/task"
	"entitlement-controlplane/services/notification"
	"entitlement-controlplane/services/reminder"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		featureflags.Module,
		otelcol.Module,
		profiling.Module,
		task.Client,
		task.Server,
		notification.Module,
		reminder.WorkerModule,
		fxLogger,
	}

	if secretmanager.Enabled() {
		opts = append(opts, secretmanager.Module)
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

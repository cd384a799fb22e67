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
	"entitlement-controlplane/pkg/health"
	"entitlement-controlplane/pkg/httpapi"
	"entitlement-controlplane/pkg/logger"
	"entitlement-controlplane/pkg/otelcol"
	"entitlement-controlplane/pkg/profiling"
	"entitlement-controlplane/pkg/redis"
	"entitlement-controlplane/pkg/server"
	"entitlement-controlplane/pkg/task"
	"entitlement-controlplane/services/bootstrap"
	"entitlement-controlplane/services/license"
	"entitlement-controlplane/services/licensekey"
	"entitlement-controlplane/services/notification"
	"entitlement-controlplane/services/reminder"
	"entitlement-controlplane/services/tenant"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		featureflags.Module,
		health.Module,
		otelcol.Module,
		profiling.Module,
		task.Client,
		bootstrap.Module,
		notification.Module,
		httpapi.Module,
		tenant.Server,
		licensekey.Server,
		license.ServerModule,
		reminder.ServerModule,
		server.ProvideHTTPServer,
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
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger}
})

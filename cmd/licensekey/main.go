package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/db"
	"entitlement-controlplane/pkg/db/pagination"
	"entitlement-controlplane/pkg/featureflags"
	"entitlement-controlplane/pkg/gen"
	"entitlement-controlplane/pkg/hashistack/secretmanager"
	"entitlement-controlplane/pkg/logger"
	"entitlement-controlplane/pkg/redis"
	"entitlement-controlplane/pkg/task"
	"entitlement-controlplane/services/license"
	"entitlement-controlplane/services/licensekey"
	"entitlement-controlplane/services/notification"
	"entitlement-controlplane/services/reminder"
	"entitlement-controlplane/services/tenant"
)

const usage = `usage: licensekey <command> [flags]

commands:
  generate   mint a batch of unused keys
  list       list keys with counts by status
  revoke     revoke a key by id
  scan       run the expiry reminder scan once
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	run, err := parse(cmd, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var (
		keys      *licensekey.Service
		reminders *reminder.Service
	)

	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		gen.Module,
		featureflags.Module,
		task.Client,
		notification.Module,
		tenant.Module,
		licensekey.Module,
		license.Module,
		reminder.Module,
		fx.Populate(&keys, &reminders),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	}
	if secretmanager.Enabled() {
		opts = append(opts, secretmanager.Module)
	}

	app := fx.New(opts...)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			zap.L().Warn("failed to stop cleanly", zap.Error(err))
		}
	}()

	out, err := run(ctx, keys, reminders)
	if err != nil {
		zap.L().Error("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal(err)
	}
}

type runner func(ctx context.Context, keys *licensekey.Service, reminders *reminder.Service) (any, error)

func parse(cmd string, args []string) (runner, error) {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)

	switch cmd {
	case "generate":
		duration := fs.Int("duration", 30, "license duration in days (1-365)")
		quantity := fs.IntP("quantity", "n", 1, "number of keys (1-100)")
		tenantID := fs.String("tenant", "", "pre-assign keys to this tenant id")
		notes := fs.String("notes", "", "free-form notes stored with the keys")
		createdBy := fs.String("created-by", os.Getenv("USER"), "operator identity")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return func(ctx context.Context, keys *licensekey.Service, _ *reminder.Service) (any, error) {
			req := licensekey.GenerateRequest{
				DurationDays: *duration,
				Quantity:     *quantity,
				Notes:        *notes,
				CreatedBy:    *createdBy,
			}
			if *tenantID != "" {
				req.AssignedTenantID = tenantID
			}
			return keys.GenerateKeys(ctx, req)
		}, nil

	case "list":
		status := fs.String("status", "", "filter by status")
		tenantID := fs.String("tenant", "", "filter by assigned tenant id")
		limit := fs.Int("limit", pagination.DefaultLimit, "page size")
		cursor := fs.String("cursor", "", "cursor from a previous page")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return func(ctx context.Context, keys *licensekey.Service, _ *reminder.Service) (any, error) {
			return keys.ListKeys(ctx, licensekey.ListKeysRequest{
				Status:     *status,
				TenantID:   *tenantID,
				Pagination: pagination.Pagination{Limit: *limit, Cursor: *cursor},
			})
		}, nil

	case "revoke":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() != 1 {
			return nil, fmt.Errorf("revoke takes exactly one key id")
		}
		id := fs.Arg(0)
		return func(ctx context.Context, keys *licensekey.Service, _ *reminder.Service) (any, error) {
			return keys.RevokeKey(ctx, id)
		}, nil

	case "scan":
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return func(ctx context.Context, _ *licensekey.Service, reminders *reminder.Service) (any, error) {
			return reminders.Run(ctx, reminder.TriggerCLI)
		}, nil
	}

	return nil, fmt.Errorf("unknown command %q", cmd)
}

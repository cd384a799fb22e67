package bootstrap

import (
	"context"

	"entitlement-controlplane/services/license"
	"entitlement-controlplane/services/licensekey"
	"entitlement-controlplane/services/reminder"
	"entitlement-controlplane/services/tenant"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table owned by this service, in dependency order.
func Models() []any {
	return []any{
		&tenant.Tenant{},
		&licensekey.LicenseKey{},
		&license.TenantLicense{},
		&reminder.Reminder{},
		&reminder.ScanJob{},
	}
}

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Migrate creates or updates the schema, including the unique index that
// limits a tenant to one active license.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		zap.L().Error("[bootstrap] failed to migrate schema", zap.Error(err))
		return err
	}
	zap.L().Info("[bootstrap] schema migrated", zap.Int("tables", len(Models())))
	return nil
}

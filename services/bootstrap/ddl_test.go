package bootstrap

import (
	"regexp"
	"strings"
	"testing"

	"entitlement-controlplane/pkg/config"
	"entitlement-controlplane/pkg/db"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var activeLicenseIndex = regexp.MustCompile(`idx_tenant_active_license\W+(?:ON\W+tenant_licenses\W*)?\(\W?active_tenant_id\W?\)`)

// schemaDDL renders the CREATE statements for every model without touching a
// database server.
func schemaDDL(t *testing.T, dialector gorm.Dialector) []string {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	gdb, err := gorm.Open(dialector, &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               db.NewZapGormLogger(zap.New(core), logger.Info, true),
	})
	require.NoError(t, err)
	require.NoError(t, gdb.Migrator().CreateTable(Models()...))

	var out []string
	for _, entry := range logs.All() {
		if sql, ok := entry.ContextMap()["sql"].(string); ok {
			out = append(out, sql)
		}
	}
	require.NotEmpty(t, out)
	return out
}

func dialectFor(t *testing.T, typ string) gorm.Dialector {
	t.Helper()

	cfg := &config.Config{}
	cfg.Database.Type = typ
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.User = "entitlement"
	cfg.Database.Password = "secret"
	cfg.Database.DBNAME = "entitlement"
	cfg.Database.SSLMode = "disable"
	cfg.Database.Timezone = "UTC"
	if typ == "sqlite" {
		cfg.Database.DBNAME = "file:ddl?mode=memory&cache=shared"
	}

	dialector, err := db.Dialect(cfg)
	require.NoError(t, err)
	if md, ok := dialector.(*mysql.Dialector); ok {
		md.Config.SkipInitializeWithVersion = true
	}
	return dialector
}

func TestActiveLicenseIndexDDL(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite"} {
		t.Run(typ, func(t *testing.T) {
			var found bool
			for _, stmt := range schemaDDL(t, dialectFor(t, typ)) {
				if !strings.Contains(stmt, "idx_tenant_active_license") {
					continue
				}
				found = true
				require.Regexp(t, activeLicenseIndex, stmt)
				require.NotContains(t, strings.ToUpper(stmt), " WHERE ")
			}
			require.True(t, found)
		})
	}
}

func TestMySQLIndexedStringsAreBounded(t *testing.T) {
	ddl := strings.Join(schemaDDL(t, dialectFor(t, "mysql")), "\n")

	require.NotContains(t, ddl, "longtext")
	require.Contains(t, ddl, "`reference_id` varchar(191)")
}

package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/logger"
	"github.com/teamtodo/teamtodo-api/internal/models"
)

// tenantScopedTables are the tables guarded by row-level security on
// postgres and by predicate injection everywhere.
var tenantScopedTables = []string{"todos", "tags", "api_keys"}

// Migrate runs schema migrations and, on postgres, installs the
// row-level security policies backing the tenant guard.
func Migrate() error {
	logger.L().Info("running database migrations")

	err := DB.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Membership{},
		&models.Session{},
		&models.APIKey{},
		&models.PasswordResetToken{},
		&models.Invitation{},
		&models.Todo{},
		&models.Tag{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := enableRowLevelSecurity(DB); err != nil {
		return fmt.Errorf("failed to install row-level security: %w", err)
	}

	logger.L().Info("database migrations completed")
	return nil
}

// enableRowLevelSecurity creates per-table policies keyed on the
// transaction-local app.current_tenant_id setting. current_setting with
// missing_ok yields NULL when nothing is bound, so an unbound
// transaction matches no rows. The injected predicates in tenant.go
// enforce the same rule for drivers without native policies.
func enableRowLevelSecurity(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	for _, table := range tenantScopedTables {
		for _, stmt := range rowLevelSecurityStatements(table) {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("table %s: %w", table, err)
			}
		}
	}

	return nil
}

// rowLevelSecurityStatements returns the DDL guarding one table. FORCE
// is required: without it policies do not apply to the table owner, and
// the role that ran AutoMigrate owns these tables.
func rowLevelSecurityStatements(table string) []string {
	return []string{
		fmt.Sprintf("ALTER TABLE %s ENABLE ROW LEVEL SECURITY", table),
		fmt.Sprintf("ALTER TABLE %s FORCE ROW LEVEL SECURITY", table),
		fmt.Sprintf("DROP POLICY IF EXISTS tenant_isolation ON %s", table),
		fmt.Sprintf(`CREATE POLICY tenant_isolation ON %s
			USING (tenant_id = current_setting('app.current_tenant_id', true)::bigint)
			WITH CHECK (tenant_id = current_setting('app.current_tenant_id', true)::bigint)`, table),
	}
}

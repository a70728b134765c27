package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/database"
)

// bypassContext returns the statement context with the tenant guard
// disabled. Reserved for credential resolution and admin cascades that
// legitimately cross tenants.
func bypassContext(tx *gorm.DB) context.Context {
	ctx := context.Background()
	if tx.Statement != nil && tx.Statement.Context != nil {
		ctx = tx.Statement.Context
	}
	return database.BypassTenantGuard(ctx)
}

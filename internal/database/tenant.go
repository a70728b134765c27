package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// tenantScoped is implemented by models whose rows belong to exactly one
// tenant. Every statement against such a model is rewritten to carry a
// tenant_id predicate derived from the ambient binding.
type tenantScoped interface {
	TenantScoped()
}

type tenantCtxKey struct{}

type bypassCtxKey struct{}

var (
	// ErrNoTenantBound is returned when a tenant-scoped row is inserted
	// without an ambient tenant binding.
	ErrNoTenantBound = errors.New("tenant guard: insert without a bound tenant")
	// ErrTenantMismatch is returned when an inserted row declares a
	// tenant_id different from the ambient binding.
	ErrTenantMismatch = errors.New("tenant guard: row tenant does not match bound tenant")
)

// BindTenant returns a context carrying the ambient tenant binding.
func BindTenant(ctx context.Context, tenantID uint64) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantFromContext extracts the ambient tenant binding.
func TenantFromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(tenantCtxKey{}).(uint64)
	return id, ok
}

// BypassTenantGuard marks the context as exempt from predicate injection.
// Only credential resolution may use this: API key validation has to
// enumerate keys before any tenant is known.
func BypassTenantGuard(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassCtxKey{}, true)
}

func guardBypassed(ctx context.Context) bool {
	bypassed, _ := ctx.Value(bypassCtxKey{}).(bool)
	return bypassed
}

// WithTenant runs fn inside a transaction whose statements are confined
// to tenantID. The binding lives in the statement context and, on
// postgres, in a SET LOCAL setting consumed by the row-level security
// policies. Both are transaction-scoped, so any exit path unbinds
// before the connection returns to the pool.
func WithTenant(ctx context.Context, db *gorm.DB, tenantID uint64, fn func(tx *gorm.DB) error) error {
	return db.WithContext(BindTenant(ctx, tenantID)).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			// set_config(..., true) is SET LOCAL: cleared when the
			// transaction ends, never visible to the next pool user.
			err := tx.Exec("SELECT set_config('app.current_tenant_id', ?, true)",
				strconv.FormatUint(tenantID, 10)).Error
			if err != nil {
				return fmt.Errorf("failed to bind tenant: %w", err)
			}
		}
		return fn(tx)
	})
}

// RegisterTenantGuard installs the predicate-injection callbacks. Reads,
// updates and deletes against tenant-scoped tables with no binding match
// zero rows; inserts with a missing or mismatched binding fail.
func RegisterTenantGuard(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant_guard:query", applyTenantFilter); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant_guard:row", applyTenantFilter); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant_guard:update", applyTenantFilter); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant_guard:delete", applyTenantFilter); err != nil {
		return err
	}
	if err := cb.Create().Before("gorm:create").Register("tenant_guard:create", checkTenantCreate); err != nil {
		return err
	}
	return nil
}

func applyTenantFilter(db *gorm.DB) {
	if !isTenantScoped(db) || guardBypassed(db.Statement.Context) {
		return
	}

	tenantID, bound := TenantFromContext(db.Statement.Context)
	if !bound {
		// Fails closed, silently: unbound access observes zero rows
		// instead of every tenant's rows.
		db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "1 = 0"},
		}})
		return
	}

	db.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"},
			Value:  tenantID,
		},
	}})
}

func checkTenantCreate(db *gorm.DB) {
	if !isTenantScoped(db) || guardBypassed(db.Statement.Context) {
		return
	}

	tenantID, bound := TenantFromContext(db.Statement.Context)
	if !bound {
		db.AddError(ErrNoTenantBound)
		return
	}

	field := db.Statement.Schema.LookUpField("tenant_id")
	if field == nil {
		return
	}

	switch rv := db.Statement.ReflectValue; rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if !rowTenantMatches(db.Statement.Context, field, rv.Index(i), tenantID) {
				db.AddError(ErrTenantMismatch)
				return
			}
		}
	case reflect.Struct:
		if !rowTenantMatches(db.Statement.Context, field, rv, tenantID) {
			db.AddError(ErrTenantMismatch)
		}
	}
}

func rowTenantMatches(ctx context.Context, field *schema.Field, rv reflect.Value, tenantID uint64) bool {
	value, isZero := field.ValueOf(ctx, rv)
	if isZero {
		return false
	}
	declared, ok := value.(uint64)
	return ok && declared == tenantID
}

func isTenantScoped(db *gorm.DB) bool {
	if db.Statement == nil || db.Statement.Schema == nil {
		return false
	}
	_, ok := reflect.New(db.Statement.Schema.ModelType).Interface().(tenantScoped)
	return ok
}

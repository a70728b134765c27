package database

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamtodo/teamtodo-api/internal/models"
)

func setupGuardedDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterTenantGuard(db))

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.Todo{},
		&models.Tag{},
		&models.APIKey{},
	))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

func seedTwoTenants(t *testing.T, db *gorm.DB) (uint64, uint64) {
	t.Helper()

	user := models.User{Email: "owner@example.com", Username: "owner", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	tenantA := models.Tenant{Name: "Alpha", Slug: "alpha", IsActive: true}
	tenantB := models.Tenant{Name: "Beta", Slug: "beta", IsActive: true}
	require.NoError(t, db.Create(&tenantA).Error)
	require.NoError(t, db.Create(&tenantB).Error)

	for i, tenantID := range []uint64{tenantA.ID, tenantA.ID, tenantB.ID} {
		todo := models.Todo{
			TenantID:  tenantID,
			CreatorID: user.ID,
			Title:     "todo",
			Status:    models.TodoStatusOpen,
		}
		err := WithTenant(context.Background(), db, tenantID, func(tx *gorm.DB) error {
			return tx.Create(&todo).Error
		})
		require.NoError(t, err, "seed todo %d", i)
	}

	return tenantA.ID, tenantB.ID
}

func TestTenantGuard_ReadsConfinedToBoundTenant(t *testing.T) {
	db := setupGuardedDB(t)
	tenantA, tenantB := seedTwoTenants(t, db)

	err := WithTenant(context.Background(), db, tenantA, func(tx *gorm.DB) error {
		var todos []models.Todo
		require.NoError(t, tx.Find(&todos).Error)
		require.Len(t, todos, 2)
		for _, todo := range todos {
			require.Equal(t, tenantA, todo.TenantID)
		}
		return nil
	})
	require.NoError(t, err)

	err = WithTenant(context.Background(), db, tenantB, func(tx *gorm.DB) error {
		var todos []models.Todo
		require.NoError(t, tx.Find(&todos).Error)
		require.Len(t, todos, 1)
		require.Equal(t, tenantB, todos[0].TenantID)
		return nil
	})
	require.NoError(t, err)
}

func TestTenantGuard_AggregatesScoped(t *testing.T) {
	db := setupGuardedDB(t)
	tenantA, _ := seedTwoTenants(t, db)

	err := WithTenant(context.Background(), db, tenantA, func(tx *gorm.DB) error {
		var count int64
		require.NoError(t, tx.Model(&models.Todo{}).Count(&count).Error)
		require.EqualValues(t, 2, count)
		return nil
	})
	require.NoError(t, err)
}

func TestTenantGuard_UnboundReadsSeeNothing(t *testing.T) {
	db := setupGuardedDB(t)
	seedTwoTenants(t, db)

	var todos []models.Todo
	require.NoError(t, db.Find(&todos).Error)
	require.Empty(t, todos)

	var count int64
	require.NoError(t, db.Model(&models.Todo{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTenantGuard_UnboundWritesTouchNothing(t *testing.T) {
	db := setupGuardedDB(t)
	tenantA, _ := seedTwoTenants(t, db)

	result := db.Model(&models.Todo{}).Where("title = ?", "todo").Update("status", models.TodoStatusDone)
	require.NoError(t, result.Error)
	require.Zero(t, result.RowsAffected)

	result = db.Where("title = ?", "todo").Delete(&models.Todo{})
	require.NoError(t, result.Error)
	require.Zero(t, result.RowsAffected)

	err := WithTenant(context.Background(), db, tenantA, func(tx *gorm.DB) error {
		var count int64
		require.NoError(t, tx.Model(&models.Todo{}).Count(&count).Error)
		require.EqualValues(t, 2, count)
		return nil
	})
	require.NoError(t, err)
}

func TestTenantGuard_InsertRequiresBinding(t *testing.T) {
	db := setupGuardedDB(t)
	tenantA, tenantB := seedTwoTenants(t, db)

	todo := models.Todo{TenantID: tenantA, CreatorID: 1, Title: "stray"}
	err := db.Create(&todo).Error
	require.ErrorIs(t, err, ErrNoTenantBound)

	// Declaring another tenant's id under a binding fails too.
	err = WithTenant(context.Background(), db, tenantB, func(tx *gorm.DB) error {
		cross := models.Todo{TenantID: tenantA, CreatorID: 1, Title: "cross"}
		return tx.Create(&cross).Error
	})
	require.ErrorIs(t, err, ErrTenantMismatch)
}

func TestTenantGuard_CrossTenantLookupByIDMisses(t *testing.T) {
	db := setupGuardedDB(t)
	tenantA, tenantB := seedTwoTenants(t, db)

	var target models.Todo
	err := WithTenant(context.Background(), db, tenantA, func(tx *gorm.DB) error {
		return tx.First(&target).Error
	})
	require.NoError(t, err)

	err = WithTenant(context.Background(), db, tenantB, func(tx *gorm.DB) error {
		var stolen models.Todo
		return tx.First(&stolen, target.ID).Error
	})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTenantGuard_BypassSeesEverything(t *testing.T) {
	db := setupGuardedDB(t)
	seedTwoTenants(t, db)

	var todos []models.Todo
	err := db.WithContext(BypassTenantGuard(context.Background())).Find(&todos).Error
	require.NoError(t, err)
	require.Len(t, todos, 3)
}

func TestTenantGuard_UnscopedModelsUntouched(t *testing.T) {
	db := setupGuardedDB(t)
	seedTwoTenants(t, db)

	var tenants []models.Tenant
	require.NoError(t, db.Find(&tenants).Error)
	require.Len(t, tenants, 2)
}

// The mock-backed test pins the generated SQL itself: the predicate has
// to be in the statement, not merely in the observed result set.
func TestTenantGuard_InjectsPredicateIntoSQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, RegisterTenantGuard(db))

	mock.ExpectQuery(regexp.QuoteMeta("`todos`.`tenant_id` = ?")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "title"}))

	var todos []models.Todo
	err = db.WithContext(BindTenant(context.Background(), 42)).Find(&todos).Error
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

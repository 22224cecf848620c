package database

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/apperrors"
	"gorm.io/gorm"
)

// TenantRunner runs one unit of work inside a transaction scoped to a tenant.
// Returning an error from fn rolls the whole unit back.
type TenantRunner interface {
	Run(ctx context.Context, tenant string, fn func(tx *gorm.DB) error) error
}

var tenantPattern = regexp.MustCompile(`^[a-z0-9_]{1,48}$`)

func ValidateTenant(tenant string) error {
	if !tenantPattern.MatchString(tenant) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid tenant id %q", tenant))
	}
	return nil
}

// SchemaRunner maps every tenant to its own Postgres schema.
type SchemaRunner struct {
	db     *gorm.DB
	prefix string
}

func NewSchemaRunner(db *gorm.DB, prefix string) *SchemaRunner {
	return &SchemaRunner{db: db, prefix: prefix}
}

func (r *SchemaRunner) SchemaFor(tenant string) string {
	return r.prefix + tenant
}

// Provision creates the tenant schema if missing and migrates it.
func (r *SchemaRunner) Provision(ctx context.Context, tenant string) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	ddl := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, r.SchemaFor(tenant))
	if err := r.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		return fmt.Errorf("create tenant schema: %w", err)
	}
	return r.Run(ctx, tenant, Migrate)
}

func (r *SchemaRunner) Run(ctx context.Context, tenant string, fn func(tx *gorm.DB) error) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	searchPath := r.SchemaFor(tenant) + ", public"

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// is_local=true: the search_path reverts when the transaction ends.
		if err := tx.Exec("SELECT set_config('search_path', ?, true)", searchPath).Error; err != nil {
			return fmt.Errorf("set tenant search_path: %w", err)
		}
		return fn(tx)
	})
}

// SharedRunner runs every tenant against the connection's own schema.
type SharedRunner struct {
	db *gorm.DB
}

func NewSharedRunner(db *gorm.DB) *SharedRunner {
	return &SharedRunner{db: db}
}

func (r *SharedRunner) Run(ctx context.Context, tenant string, fn func(tx *gorm.DB) error) error {
	if err := ValidateTenant(tenant); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

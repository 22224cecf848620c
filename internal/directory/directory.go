// Package directory resolves member display names from the tenant's user table.
package directory

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/scheduling-service/pkg/database"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

type Directory interface {
	// Names returns display names for the ids that exist. Unknown ids are absent.
	Names(ctx context.Context, tenant string, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

// GormDirectory reads users(id, full_name), which the user module owns.
type GormDirectory struct {
	runner database.TenantRunner
}

func NewGormDirectory(runner database.TenantRunner) *GormDirectory {
	return &GormDirectory{runner: runner}
}

type userRow struct {
	ID       uuid.UUID
	FullName string
}

func (d *GormDirectory) Names(ctx context.Context, tenant string, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []userRow
	err := d.runner.Run(ctx, tenant, func(tx *gorm.DB) error {
		return tx.WithContext(ctx).
			Table("users").
			Select("id, full_name").
			Where("id IN ?", ids).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		names[r.ID] = r.FullName
	}
	return names, nil
}

type cacheKey struct {
	tenant string
	id     uuid.UUID
}

// Cached keeps recently resolved names in an expiring LRU.
type Cached struct {
	next  Directory
	cache *lru.LRU[cacheKey, string]
}

func NewCached(next Directory, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 1000
	}
	return &Cached{
		next:  next,
		cache: lru.NewLRU[cacheKey, string](size, nil, ttl),
	}
}

func (c *Cached) Names(ctx context.Context, tenant string, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	var missing []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if name, ok := c.cache.Get(cacheKey{tenant, id}); ok {
			names[id] = name
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return names, nil
	}

	resolved, err := c.next.Names(ctx, tenant, missing)
	if err != nil {
		return nil, err
	}
	for id, name := range resolved {
		c.cache.Add(cacheKey{tenant, id}, name)
		names[id] = name
	}
	return names, nil
}

// Invalidate drops the cached name of one member.
func (c *Cached) Invalidate(tenant string, id uuid.UUID) {
	c.cache.Remove(cacheKey{tenant, id})
}

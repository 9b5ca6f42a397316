// Package refresh keeps an in-memory snapshot of the published catalog for
// the public directory listing, so browse traffic does not fan out to the
// item store on every request. The snapshot is rebuilt on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

var platformFields = []string{
	"id",
	"name",
	"slug",
	"website_url",
	"description",
	"logo",
	"cost_type",
	"domain_authority",
	"status",
	"categories.categories_id.id",
	"categories.categories_id.slug",
	"categories.categories_id.name",
}

type CatalogCache struct {
	store *itemstore.Client
	cron  *cron.Cron
	spec  string

	mu        sync.RWMutex
	platforms []model.Platform
	updatedAt time.Time
}

func NewCatalogCache(store *itemstore.Client, spec string) *CatalogCache {
	return &CatalogCache{
		store: store,
		cron:  cron.New(cron.WithLocation(time.Local)),
		spec:  spec,
	}
}

// Start performs an initial refresh and schedules periodic ones. An initial
// failure is logged, not fatal; the listing falls back to live reads until
// the first successful refresh.
func (c *CatalogCache) Start(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		klog.Errorf("initial catalog refresh failed: %v", err)
	}
	_, err := c.cron.AddFunc(c.spec, func() {
		if err := c.Refresh(context.Background()); err != nil {
			klog.Errorf("catalog refresh failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule catalog refresh: %w", err)
	}
	c.cron.Start()
	return nil
}

func (c *CatalogCache) Stop() {
	c.cron.Stop()
}

func (c *CatalogCache) Refresh(ctx context.Context) error {
	var platforms []model.Platform
	err := c.store.Items(model.CollectionPlatforms).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{"status": itemstore.Eq(string(model.PlatformPublished))},
		Fields: platformFields,
		Sort:   []string{"-domain_authority"},
	}, &platforms)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.platforms = platforms
	c.updatedAt = time.Now()
	c.mu.Unlock()
	klog.V(2).Infof("catalog snapshot refreshed, %d platforms", len(platforms))
	return nil
}

// Platforms returns the published snapshot, optionally narrowed to one
// category slug. The second return is false when no snapshot has been taken
// yet.
func (c *CatalogCache) Platforms(categorySlug string) ([]model.Platform, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.updatedAt.IsZero() {
		return nil, false
	}
	if categorySlug == "" {
		out := make([]model.Platform, len(c.platforms))
		copy(out, c.platforms)
		return out, true
	}
	var out []model.Platform
	for _, p := range c.platforms {
		for _, slug := range p.CategorySlugs() {
			if slug == categorySlug {
				out = append(out, p)
				break
			}
		}
	}
	return out, true
}

func (c *CatalogCache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

const (
	tagMatchScore = 100
	generalScore  = 30
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
	"categories.categories_id.id",
	"categories.categories_id.slug",
	"categories.categories_id.name",
}

type ScoredPlatform struct {
	model.Platform
	Score int `json:"score"`
}

type Result struct {
	Items    []ScoredPlatform
	TagSlugs []string
	// Project carries the owning user for the caller's access check.
	Project model.Project
}

// Recommend ranks published platforms for the project: entries whose
// categories intersect the project's tags score 100, entries carrying the
// general category score 30, both cumulative. Entries the project already
// rejected are excluded when excludeRejected is set. The result is ordered by
// score, then domain authority, both descending; ties keep merge order
// (tag-matched before general). Read-only and safe to repeat.
func (e *Engine) Recommend(ctx context.Context, projectID string, excludeRejected bool) (*Result, error) {
	project, err := e.fetchProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	tagSlugs := project.TagSlugs()

	// The three candidate reads are independent; run them together and wait
	// for all before merging.
	var (
		wg          sync.WaitGroup
		tagMatched  []model.Platform
		general     []model.Platform
		rejectedIDs []model.ID
		errTag      error
		errGeneral  error
		errRejected error
	)
	if len(tagSlugs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tagMatched, errTag = e.fetchPublished(ctx, itemstore.Filter{
				"categories": itemstore.Filter{"categories_id": itemstore.Filter{"slug": itemstore.In(tagSlugs)}},
			})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		general, errGeneral = e.fetchPublished(ctx, itemstore.Filter{
			"categories": itemstore.Filter{"categories_id": itemstore.Filter{"slug": itemstore.Eq(model.GeneralSlug)}},
		})
	}()
	if excludeRejected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rejectedIDs, errRejected = e.fetchRejectedIDs(ctx, projectID)
		}()
	}
	wg.Wait()
	for _, err := range []error{errTag, errGeneral, errRejected} {
		if err != nil {
			return nil, err
		}
	}

	rejected := lo.SliceToMap(rejectedIDs, func(id model.ID) (model.ID, struct{}) {
		return id, struct{}{}
	})

	// Merge with first occurrence winning, rejected entries dropped.
	merged := make([]model.Platform, 0, len(tagMatched)+len(general))
	seen := make(map[model.ID]struct{}, len(tagMatched)+len(general))
	for _, p := range append(tagMatched, general...) {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if _, out := rejected[p.ID]; out {
			continue
		}
		merged = append(merged, p)
	}

	items := lo.Map(merged, func(p model.Platform, _ int) ScoredPlatform {
		return ScoredPlatform{Platform: p, Score: scorePlatform(p, tagSlugs)}
	})
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].DomainAuthority > items[j].DomainAuthority
	})

	return &Result{Items: items, TagSlugs: tagSlugs, Project: *project}, nil
}

func scorePlatform(p model.Platform, tagSlugs []string) int {
	slugs := p.CategorySlugs()
	score := 0
	if len(tagSlugs) > 0 && lo.Some(slugs, tagSlugs) {
		score += tagMatchScore
	}
	if lo.Contains(slugs, model.GeneralSlug) {
		score += generalScore
	}
	return score
}

func (e *Engine) fetchPublished(ctx context.Context, categoryFilter itemstore.Filter) ([]model.Platform, error) {
	filter := itemstore.Filter{"status": itemstore.Eq(string(model.PlatformPublished))}
	for k, v := range categoryFilter {
		filter[k] = v
	}
	var platforms []model.Platform
	err := e.store.Items(model.CollectionPlatforms).List(ctx, itemstore.Query{
		Filter: filter,
		Fields: platformFields,
	}, &platforms)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate platforms: %w", err)
	}
	return platforms, nil
}

type trackingRef struct {
	PlatformID model.ID `json:"platform_id"`
}

func (e *Engine) fetchRejectedIDs(ctx context.Context, projectID string) ([]model.ID, error) {
	var rows []trackingRef
	err := e.store.Items(model.CollectionTracking).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{
			"project_id": itemstore.Eq(projectID),
			"status":     itemstore.Eq(string(model.TrackingRejected)),
		},
		Fields: []string{"platform_id"},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("fetch rejected platforms: %w", err)
	}
	return lo.Map(rows, func(r trackingRef, _ int) model.ID {
		return r.PlatformID
	}), nil
}

// Package recommend ranks catalog platforms for a project by category
// overlap. Matching and scoring read only published platforms; the whole
// engine is side-effect free.
package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

// ErrProjectNotFound reports that the project id resolves to nothing.
var ErrProjectNotFound = errors.New("recommend: project not found")

type Engine struct {
	store *itemstore.Client
}

func NewEngine(store *itemstore.Client) *Engine {
	return &Engine{store: store}
}

var projectFields = []string{
	"id",
	"user_id",
	"categories.categories_id.id",
	"categories.categories_id.slug",
	"categories.categories_id.name",
}

func (e *Engine) fetchProject(ctx context.Context, projectID string) (*model.Project, error) {
	var projects []model.Project
	err := e.store.Items(model.CollectionProjects).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{"id": itemstore.Eq(projectID)},
		Fields: projectFields,
		Limit:  1,
	}, &projects)
	if err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", projectID, err)
	}
	if len(projects) == 0 {
		return nil, ErrProjectNotFound
	}
	return &projects[0], nil
}

// ResolveProjectTags returns the set of category slugs attached to the
// project. An empty set is valid: a project may carry no tags.
func (e *Engine) ResolveProjectTags(ctx context.Context, projectID string) ([]string, error) {
	project, err := e.fetchProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return project.TagSlugs(), nil
}

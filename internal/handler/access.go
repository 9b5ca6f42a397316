package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

// errNotOwned reports that the resource does not exist or belongs to another
// user; callers answer 404 either way.
var errNotOwned = errors.New("handler: project not found for user")

// fetchOwnedProject loads the project only if it belongs to userID.
func fetchOwnedProject(ctx context.Context, store *itemstore.Client, projectID, userID string) (*model.Project, error) {
	var projects []model.Project
	err := store.Items(model.CollectionProjects).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{
			"id":      itemstore.Eq(projectID),
			"user_id": itemstore.Eq(userID),
		},
		Fields: []string{"id", "user_id", "name"},
		Limit:  1,
	}, &projects)
	if err != nil {
		return nil, fmt.Errorf("fetch project %s: %w", projectID, err)
	}
	if len(projects) == 0 {
		return nil, errNotOwned
	}
	return &projects[0], nil
}

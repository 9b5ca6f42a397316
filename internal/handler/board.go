package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/internal/util"
	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

func init() {
	Registers = append(Registers, NewBoardMgr)
}

type BoardMgr struct {
	name  string
	store *itemstore.Client
}

func NewBoardMgr(conf *RegisterConfig) Manager {
	return &BoardMgr{
		name:  "board",
		store: conf.Store,
	}
}

func (mgr *BoardMgr) GetName() string { return mgr.name }

func (mgr *BoardMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *BoardMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.ListItems)
	g.POST("", mgr.CreateItem)
	g.PATCH("/:id", mgr.UpdateItem)
	g.DELETE("/:id", mgr.DeleteItem)
}

func (mgr *BoardMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// trackingFields expands the platform relation so the board renders without a
// second round trip.
var trackingFields = []string{
	"id",
	"project_id",
	"status",
	"notes",
	"live_backlink_url",
	"date_created",
	"date_updated",
	"platform_id.id",
	"platform_id.name",
	"platform_id.slug",
	"platform_id.website_url",
	"platform_id.logo",
	"platform_id.domain_authority",
	"platform_id.cost_type",
}

// ListItems godoc
//
//	@Summary	Tracking items for one of the caller's projects
//	@Tags		Board
//	@Produce	json
//	@Param		projectId	query		string	true	"project id"
//	@Success	200	{object}	resputil.Response[any]
//	@Failure	404	{object}	resputil.Response[any]	"project missing or not the caller's"
//	@Router		/board [get]
func (mgr *BoardMgr) ListItems(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		resputil.HTTPError(c, http.StatusBadRequest, "projectId is required", resputil.InvalidRequest)
		return
	}
	if !mgr.requireProject(c, projectID) {
		return
	}

	var items []model.TrackingItem
	err := mgr.store.Items(model.CollectionTracking).List(c.Request.Context(), itemstore.Query{
		Filter: itemstore.Filter{"project_id": itemstore.Eq(projectID)},
		Fields: trackingFields,
		Sort:   []string{"date_created"},
	}, &items)
	if err != nil {
		klog.Errorf("list tracking items for project %s: %v", projectID, err)
		resputil.Error(c, "Failed to load board", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"items": items})
}

type CreateItemReq struct {
	ProjectID  string `json:"projectId" binding:"required"`
	PlatformID string `json:"platformId" binding:"required"`
}

// CreateItem godoc
//
//	@Summary		Add a platform to the project board
//	@Description	New items start in todo; a platform can appear on a board only once
//	@Tags			Board
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	resputil.Response[any]
//	@Failure		400	{object}	resputil.Response[any]	"missing fields or platform already on the board"
//	@Router			/board [post]
func (mgr *BoardMgr) CreateItem(c *gin.Context) {
	var req CreateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "projectId and platformId are required", resputil.InvalidRequest)
		return
	}
	if !mgr.requireProject(c, req.ProjectID) {
		return
	}

	dup, err := mgr.hasItem(c.Request.Context(), req.ProjectID, req.PlatformID)
	if err != nil {
		klog.Errorf("check duplicate tracking item: %v", err)
		resputil.Error(c, "Failed to add platform", resputil.Upstream)
		return
	}
	if dup {
		resputil.HTTPError(c, http.StatusBadRequest, "Platform is already on the board", resputil.Conflict)
		return
	}

	var created model.TrackingItem
	err = mgr.store.Items(model.CollectionTracking).Create(c.Request.Context(), gin.H{
		"project_id":  req.ProjectID,
		"platform_id": req.PlatformID,
		"status":      model.TrackingTodo,
	}, &created)
	if err != nil {
		klog.Errorf("create tracking item: %v", err)
		resputil.Error(c, "Failed to add platform", resputil.Upstream)
		return
	}

	// Refetch with the platform expanded; the create response carries ids only.
	if item, err := mgr.fetchItem(c.Request.Context(), string(created.ID)); err == nil {
		created = *item
	}
	resputil.Created(c, gin.H{"item": created})
}

type UpdateItemReq struct {
	Status          *model.TrackingStatus `json:"status"`
	Notes           *string               `json:"notes"`
	LiveBacklinkURL *string               `json:"liveBacklinkUrl"`
}

// UpdateItem godoc
//
//	@Summary		Patch a tracking item
//	@Description	Any subset of status, notes and live backlink URL; last write wins
//	@Tags			Board
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	resputil.Response[any]
//	@Failure		400	{object}	resputil.Response[any]	"empty patch or unknown status"
//	@Failure		404	{object}	resputil.Response[any]
//	@Router			/board/{id} [patch]
func (mgr *BoardMgr) UpdateItem(c *gin.Context) {
	var req UpdateItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "Invalid patch body", resputil.InvalidRequest)
		return
	}
	if req.Status == nil && req.Notes == nil && req.LiveBacklinkURL == nil {
		resputil.HTTPError(c, http.StatusBadRequest, "Nothing to update", resputil.InvalidRequest)
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		resputil.HTTPError(c, http.StatusBadRequest,
			fmt.Sprintf("Unknown status %q", *req.Status), resputil.InvalidRequest)
		return
	}

	itemID := c.Param("id")
	item, ok := mgr.requireItem(c, itemID)
	if !ok {
		return
	}

	patch := gin.H{}
	if req.Status != nil {
		patch["status"] = *req.Status
	}
	if req.Notes != nil {
		patch["notes"] = *req.Notes
	}
	if req.LiveBacklinkURL != nil {
		patch["live_backlink_url"] = *req.LiveBacklinkURL
	}
	if err := mgr.store.Items(model.CollectionTracking).Update(c.Request.Context(), itemID, patch, nil); err != nil {
		klog.Errorf("update tracking item %s: %v", itemID, err)
		resputil.Error(c, "Failed to update item", resputil.Upstream)
		return
	}

	updated, err := mgr.fetchItem(c.Request.Context(), itemID)
	if err != nil {
		updated = item
	}

	// A live item without a recorded backlink URL still needs one; the client
	// prompts for it and follows up with another patch.
	needsBacklink := req.Status != nil && *req.Status == model.TrackingLive &&
		(updated.LiveBacklinkURL == nil || *updated.LiveBacklinkURL == "")
	resputil.Success(c, gin.H{"item": updated, "needsBacklink": needsBacklink})
}

// DeleteItem godoc
//
//	@Summary	Remove a platform from the board
//	@Tags		Board
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Failure	404	{object}	resputil.Response[any]
//	@Router		/board/{id} [delete]
func (mgr *BoardMgr) DeleteItem(c *gin.Context) {
	itemID := c.Param("id")
	if _, ok := mgr.requireItem(c, itemID); !ok {
		return
	}
	if err := mgr.store.Items(model.CollectionTracking).Delete(c.Request.Context(), itemID); err != nil {
		klog.Errorf("delete tracking item %s: %v", itemID, err)
		resputil.Error(c, "Failed to remove item", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"deleted": itemID})
}

// requireProject answers 404 and returns false unless the project belongs to
// the caller.
func (mgr *BoardMgr) requireProject(c *gin.Context, projectID string) bool {
	session := util.GetSession(c)
	_, err := fetchOwnedProject(c.Request.Context(), mgr.store, projectID, session.UserID)
	if err != nil {
		if errors.Is(err, errNotOwned) {
			resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
		} else {
			klog.Errorf("check project ownership: %v", err)
			resputil.Error(c, "Failed to load project", resputil.Upstream)
		}
		return false
	}
	return true
}

// requireItem loads the item and checks, through its project, that it belongs
// to the caller.
func (mgr *BoardMgr) requireItem(c *gin.Context, itemID string) (*model.TrackingItem, bool) {
	item, err := mgr.fetchItem(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, itemstore.ErrNotFound) || errors.Is(err, errNotOwned) {
			resputil.HTTPError(c, http.StatusNotFound, "Item not found", resputil.NotFound)
		} else {
			klog.Errorf("load tracking item %s: %v", itemID, err)
			resputil.Error(c, "Failed to load item", resputil.Upstream)
		}
		return nil, false
	}
	if !mgr.requireProject(c, string(item.ProjectID)) {
		return nil, false
	}
	return item, true
}

func (mgr *BoardMgr) fetchItem(ctx context.Context, itemID string) (*model.TrackingItem, error) {
	var items []model.TrackingItem
	err := mgr.store.Items(model.CollectionTracking).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{"id": itemstore.Eq(itemID)},
		Fields: trackingFields,
		Limit:  1,
	}, &items)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, itemstore.ErrNotFound
	}
	return &items[0], nil
}

func (mgr *BoardMgr) hasItem(ctx context.Context, projectID, platformID string) (bool, error) {
	var items []model.TrackingItem
	err := mgr.store.Items(model.CollectionTracking).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{
			"project_id":  itemstore.Eq(projectID),
			"platform_id": itemstore.Eq(platformID),
		},
		Fields: []string{"id"},
		Limit:  1,
	}, &items)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/internal/util"
	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
	"github.com/backlinkflow/backend/pkg/notify"
	"github.com/backlinkflow/backend/pkg/refresh"
)

func init() {
	Registers = append(Registers, NewPlatformMgr)
}

type PlatformMgr struct {
	name     string
	store    *itemstore.Client
	catalog  *refresh.CatalogCache
	notifier notify.Notifier
}

func NewPlatformMgr(conf *RegisterConfig) Manager {
	return &PlatformMgr{
		name:     "platforms",
		store:    conf.Store,
		catalog:  conf.Catalog,
		notifier: conf.Notifier,
	}
}

func (mgr *PlatformMgr) GetName() string { return mgr.name }

func (mgr *PlatformMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.ListPublished)
}

func (mgr *PlatformMgr) RegisterProtected(g *gin.RouterGroup) {
	g.POST("", mgr.Submit)
}

func (mgr *PlatformMgr) RegisterAdmin(g *gin.RouterGroup) {
	g.GET("", mgr.ListForReview)
	g.PATCH("/:id/status", mgr.Review)
}

// ListPublished godoc
//
//	@Summary		Public platform directory
//	@Description	Published platforms sorted by domain authority, optionally narrowed to one category
//	@Tags			Platform
//	@Produce		json
//	@Param			category	query		string	false	"category slug"
//	@Success		200	{object}	resputil.Response[any]
//	@Router			/platforms [get]
func (mgr *PlatformMgr) ListPublished(c *gin.Context) {
	category := c.Query("category")

	// Serve from the snapshot; fall back to a live read until the first
	// refresh has landed.
	if platforms, ok := mgr.catalog.Platforms(category); ok {
		resputil.Success(c, gin.H{"items": platforms})
		return
	}

	platforms, err := mgr.listLive(c.Request.Context(), category)
	if err != nil {
		klog.Errorf("list published platforms: %v", err)
		resputil.Error(c, "Failed to load platforms", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"items": platforms})
}

type SubmitPlatformReq struct {
	Name        string         `json:"name" binding:"required"`
	WebsiteURL  string         `json:"websiteUrl" binding:"required"`
	Description string         `json:"description"`
	CostType    model.CostType `json:"costType"`
	CategoryIDs []string       `json:"categoryIds"`
}

// Submit godoc
//
//	@Summary		Submit a platform for review
//	@Description	Submissions enter pending_review with domain authority 0 and a slug derived from the name
//	@Tags			Platform
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	resputil.Response[any]
//	@Failure		400	{object}	resputil.Response[any]
//	@Router			/platforms [post]
func (mgr *PlatformMgr) Submit(c *gin.Context) {
	var req SubmitPlatformReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "name and websiteUrl are required", resputil.InvalidRequest)
		return
	}
	if req.CostType == "" {
		req.CostType = model.CostFree
	}
	if !req.CostType.Valid() {
		resputil.HTTPError(c, http.StatusBadRequest, "Unknown cost type", resputil.InvalidRequest)
		return
	}

	session := util.GetSession(c)
	payload := gin.H{
		"name":             req.Name,
		"slug":             model.Slugify(req.Name),
		"website_url":      req.WebsiteURL,
		"description":      req.Description,
		"cost_type":        req.CostType,
		"domain_authority": 0,
		"status":           model.PlatformPendingReview,
		"user_created":     session.UserID,
	}
	if len(req.CategoryIDs) > 0 {
		payload["categories"] = categoryJunction(req.CategoryIDs)
	}

	var created model.Platform
	if err := mgr.store.Items(model.CollectionPlatforms).Create(c.Request.Context(), payload, &created); err != nil {
		klog.Errorf("create platform submission: %v", err)
		resputil.Error(c, "Failed to submit platform", resputil.Upstream)
		return
	}

	go mgr.notifySubmission(created, session)

	resputil.Created(c, gin.H{"platform": created})
}

// ListForReview godoc
//
//	@Summary	Pending platform submissions
//	@Tags		Platform
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Router		/admin/platforms [get]
func (mgr *PlatformMgr) ListForReview(c *gin.Context) {
	var platforms []model.Platform
	err := mgr.store.Items(model.CollectionPlatforms).List(c.Request.Context(), itemstore.Query{
		Filter: itemstore.Filter{"status": itemstore.Eq(string(model.PlatformPendingReview))},
		Fields: []string{"id", "name", "slug", "website_url", "description", "cost_type", "date_created", "user_created"},
		Sort:   []string{"date_created"},
	}, &platforms)
	if err != nil {
		klog.Errorf("list pending platforms: %v", err)
		resputil.Error(c, "Failed to load submissions", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"items": platforms})
}

type ReviewReq struct {
	Status          model.PlatformStatus `json:"status" binding:"required"`
	DomainAuthority *int                 `json:"domainAuthority"`
}

// Review publishes or rejects a submission; publishing may set the curated
// domain authority at the same time.
func (mgr *PlatformMgr) Review(c *gin.Context) {
	var req ReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "status is required", resputil.InvalidRequest)
		return
	}
	if req.Status != model.PlatformPublished && req.Status != model.PlatformRejected {
		resputil.HTTPError(c, http.StatusBadRequest, "status must be published or rejected", resputil.InvalidRequest)
		return
	}
	if req.DomainAuthority != nil && (*req.DomainAuthority < 0 || *req.DomainAuthority > 100) {
		resputil.HTTPError(c, http.StatusBadRequest, "domainAuthority must be within 0-100", resputil.InvalidRequest)
		return
	}

	patch := gin.H{"status": req.Status}
	if req.DomainAuthority != nil {
		patch["domain_authority"] = *req.DomainAuthority
	}
	var updated model.Platform
	err := mgr.store.Items(model.CollectionPlatforms).Update(c.Request.Context(), c.Param("id"), patch, &updated)
	if err != nil {
		klog.Errorf("review platform %s: %v", c.Param("id"), err)
		resputil.Error(c, "Failed to update submission", resputil.Upstream)
		return
	}

	// Make the decision visible in the directory without waiting for the
	// next scheduled refresh.
	if err := mgr.catalog.Refresh(c.Request.Context()); err != nil {
		klog.Errorf("refresh catalog after review: %v", err)
	}
	resputil.Success(c, gin.H{"platform": updated})
}

func (mgr *PlatformMgr) listLive(ctx context.Context, category string) ([]model.Platform, error) {
	filter := itemstore.Filter{"status": itemstore.Eq(string(model.PlatformPublished))}
	if category != "" {
		filter["categories"] = itemstore.Filter{"categories_id": itemstore.Filter{"slug": itemstore.Eq(category)}}
	}
	var platforms []model.Platform
	err := mgr.store.Items(model.CollectionPlatforms).List(ctx, itemstore.Query{
		Filter: filter,
		Fields: []string{
			"id", "name", "slug", "website_url", "description", "logo",
			"cost_type", "domain_authority",
			"categories.categories_id.id", "categories.categories_id.slug", "categories.categories_id.name",
		},
		Sort: []string{"-domain_authority"},
	}, &platforms)
	return platforms, err
}

// notifySubmission runs off the request; the submitter never waits on SMTP.
func (mgr *PlatformMgr) notifySubmission(platform model.Platform, session util.SessionInfo) {
	submitter := model.User{ID: model.ID(session.UserID), Email: session.Email}
	var users []model.User
	err := mgr.store.Items(model.CollectionUsers).List(context.Background(), itemstore.Query{
		Filter: itemstore.Filter{"id": itemstore.Eq(session.UserID)},
		Fields: []string{"id", "email", "name"},
		Limit:  1,
	}, &users)
	if err == nil && len(users) > 0 {
		submitter = users[0]
	}
	if err := mgr.notifier.PlatformSubmitted(context.Background(), platform, submitter); err != nil {
		klog.Errorf("notify reviewers about %s: %v", platform.Name, err)
	}
}

// categoryJunction shapes category ids for the many-to-many junction write.
func categoryJunction(ids []string) []gin.H {
	rows := make([]gin.H, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, gin.H{"categories_id": id})
	}
	return rows
}

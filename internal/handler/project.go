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
)

func init() {
	Registers = append(Registers, NewProjectMgr)
}

type ProjectMgr struct {
	name  string
	store *itemstore.Client
}

func NewProjectMgr(conf *RegisterConfig) Manager {
	return &ProjectMgr{
		name:  "projects",
		store: conf.Store,
	}
}

func (mgr *ProjectMgr) GetName() string { return mgr.name }

func (mgr *ProjectMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *ProjectMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
	g.POST("", mgr.Create)
}

func (mgr *ProjectMgr) RegisterAdmin(_ *gin.RouterGroup) {}

var projectListFields = []string{
	"id",
	"name",
	"website_url",
	"date_created",
	"date_updated",
	"categories.categories_id.id",
	"categories.categories_id.slug",
	"categories.categories_id.name",
}

// List godoc
//
//	@Summary	The caller's projects, newest first
//	@Tags		Project
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Router		/projects [get]
func (mgr *ProjectMgr) List(c *gin.Context) {
	session := util.GetSession(c)
	var projects []model.Project
	err := mgr.store.Items(model.CollectionProjects).List(c.Request.Context(), itemstore.Query{
		Filter: itemstore.Filter{"user_id": itemstore.Eq(session.UserID)},
		Fields: projectListFields,
		Sort:   []string{"-date_created"},
	}, &projects)
	if err != nil {
		klog.Errorf("list projects for user %s: %v", session.UserID, err)
		resputil.Error(c, "Failed to load projects", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"items": projects})
}

type CreateProjectReq struct {
	Name           string   `json:"name" binding:"required"`
	WebsiteURL     string   `json:"websiteUrl"`
	CategoryIDs    []string `json:"categoryIds"`
	PrefillGeneral *bool    `json:"prefillGeneral"`
}

// Create godoc
//
//	@Summary		Create a project
//	@Description	Unless disabled, the new board is prefilled with todo items for the ten strongest general platforms
//	@Tags			Project
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	resputil.Response[any]
//	@Failure		400	{object}	resputil.Response[any]
//	@Router			/projects [post]
func (mgr *ProjectMgr) Create(c *gin.Context) {
	var req CreateProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "name is required", resputil.InvalidRequest)
		return
	}

	session := util.GetSession(c)
	payload := gin.H{
		"name":    req.Name,
		"user_id": session.UserID,
	}
	if req.WebsiteURL != "" {
		payload["website_url"] = req.WebsiteURL
	}
	if len(req.CategoryIDs) > 0 {
		payload["categories"] = categoryJunction(req.CategoryIDs)
	}

	var created model.Project
	if err := mgr.store.Items(model.CollectionProjects).Create(c.Request.Context(), payload, &created); err != nil {
		klog.Errorf("create project for user %s: %v", session.UserID, err)
		resputil.Error(c, "Failed to create project", resputil.Upstream)
		return
	}

	prefilled := 0
	if req.PrefillGeneral == nil || *req.PrefillGeneral {
		var err error
		prefilled, err = mgr.prefillGeneral(c.Request.Context(), string(created.ID))
		if err != nil {
			// The project exists; a failed prefill only leaves the board empty.
			klog.Errorf("prefill project %s: %v", created.ID, err)
		}
	}

	resputil.Created(c, gin.H{"project": created, "prefilled": prefilled})
}

// prefillGeneral seeds the new board with the ten published general platforms
// with the highest domain authority.
func (mgr *ProjectMgr) prefillGeneral(ctx context.Context, projectID string) (int, error) {
	var platforms []model.Platform
	err := mgr.store.Items(model.CollectionPlatforms).List(ctx, itemstore.Query{
		Filter: itemstore.Filter{
			"status":     itemstore.Eq(string(model.PlatformPublished)),
			"categories": itemstore.Filter{"categories_id": itemstore.Filter{"slug": itemstore.Eq(model.GeneralSlug)}},
		},
		Fields: []string{"id"},
		Sort:   []string{"-domain_authority"},
		Limit:  10,
	}, &platforms)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, p := range platforms {
		err := mgr.store.Items(model.CollectionTracking).Create(ctx, gin.H{
			"project_id":  projectID,
			"platform_id": p.ID,
			"status":      model.TrackingTodo,
		}, nil)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

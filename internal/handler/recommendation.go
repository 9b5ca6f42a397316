package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/internal/util"
	"github.com/backlinkflow/backend/pkg/recommend"
)

func init() {
	Registers = append(Registers, NewRecommendationMgr)
}

type RecommendationMgr struct {
	name        string
	recommender *recommend.Engine
}

func NewRecommendationMgr(conf *RegisterConfig) Manager {
	return &RecommendationMgr{
		name:        "recommendations",
		recommender: conf.Recommender,
	}
}

func (mgr *RecommendationMgr) GetName() string { return mgr.name }

func (mgr *RecommendationMgr) RegisterPublic(_ *gin.RouterGroup) {}

func (mgr *RecommendationMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("", mgr.List)
}

func (mgr *RecommendationMgr) RegisterAdmin(_ *gin.RouterGroup) {}

type RecommendationReq struct {
	ProjectID       string `form:"projectId" binding:"required"`
	ExcludeRejected *bool  `form:"excludeRejected"`
}

// List godoc
//
//	@Summary		Ranked platform recommendations for a project
//	@Description	Scores published platforms by category overlap with the project's tags
//	@Tags			Recommendation
//	@Produce		json
//	@Param			projectId		query		string	true	"project id"
//	@Param			excludeRejected	query		bool	false	"drop platforms the project already rejected (default true)"
//	@Success		200	{object}	resputil.Response[any]	"ranked items plus match metadata"
//	@Failure		400	{object}	resputil.Response[any]	"missing projectId"
//	@Failure		404	{object}	resputil.Response[any]	"unknown project"
//	@Router			/recommendations [get]
func (mgr *RecommendationMgr) List(c *gin.Context) {
	var req RecommendationReq
	if err := c.ShouldBindQuery(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "projectId is required", resputil.InvalidRequest)
		return
	}
	excludeRejected := req.ExcludeRejected == nil || *req.ExcludeRejected

	result, err := mgr.recommender.Recommend(c.Request.Context(), req.ProjectID, excludeRejected)
	if err != nil {
		if errors.Is(err, recommend.ErrProjectNotFound) {
			resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
			return
		}
		resputil.Error(c, "Failed to load recommendations", resputil.Upstream)
		return
	}

	// Foreign projects are indistinguishable from missing ones.
	session := util.GetSession(c)
	if string(result.Project.UserID) != session.UserID {
		resputil.HTTPError(c, http.StatusNotFound, "Project not found", resputil.NotFound)
		return
	}

	resputil.Success(c, gin.H{
		"items": result.Items,
		"meta": gin.H{
			"projectId":       req.ProjectID,
			"tagSlugs":        result.TagSlugs,
			"excludeRejected": excludeRejected,
		},
	})
}

package handler

import (
	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

func init() {
	Registers = append(Registers, NewCategoryMgr)
}

type CategoryMgr struct {
	name  string
	store *itemstore.Client
}

func NewCategoryMgr(conf *RegisterConfig) Manager {
	return &CategoryMgr{
		name:  "categories",
		store: conf.Store,
	}
}

func (mgr *CategoryMgr) GetName() string { return mgr.name }

func (mgr *CategoryMgr) RegisterPublic(g *gin.RouterGroup) {
	g.GET("", mgr.List)
}

func (mgr *CategoryMgr) RegisterProtected(_ *gin.RouterGroup) {}

func (mgr *CategoryMgr) RegisterAdmin(_ *gin.RouterGroup) {}

// List godoc
//
//	@Summary	All categories, sorted by name
//	@Tags		Category
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Router		/categories [get]
func (mgr *CategoryMgr) List(c *gin.Context) {
	var categories []model.Category
	err := mgr.store.Items(model.CollectionCategories).List(c.Request.Context(), itemstore.Query{
		Fields: []string{"id", "name", "slug"},
		Sort:   []string{"name"},
	}, &categories)
	if err != nil {
		klog.Errorf("list categories: %v", err)
		resputil.Error(c, "Failed to load categories", resputil.Upstream)
		return
	}
	resputil.Success(c, gin.H{"items": categories})
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/notify"
	"github.com/backlinkflow/backend/pkg/oauth"
	"github.com/backlinkflow/backend/pkg/recommend"
	"github.com/backlinkflow/backend/pkg/refresh"
)

type Manager interface {
	GetName() string
	RegisterPublic(group *gin.RouterGroup)
	RegisterProtected(group *gin.RouterGroup)
	RegisterAdmin(group *gin.RouterGroup)
}

// RegisterConfig carries the shared dependencies every manager is built from.
type RegisterConfig struct {
	Store       *itemstore.Client
	Recommender *recommend.Engine
	Catalog     *refresh.CatalogCache
	Notifier    notify.Notifier
	Providers   map[string]oauth.Provider
}

// Registers collects the manager constructors; each handler file appends its
// own in init().
var Registers []func(*RegisterConfig) Manager

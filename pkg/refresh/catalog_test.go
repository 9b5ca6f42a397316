package refresh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

func TestCatalogCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items/platforms", r.URL.Path)
		assert.Equal(t, "-domain_authority", r.URL.Query().Get("sort"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"p1","name":"Alpha","domain_authority":90,"categories":[{"categories_id":{"id":"c1","slug":"general"}}]},
			{"id":"p2","name":"Beta","domain_authority":40,"categories":[{"categories_id":{"id":"c2","slug":"dev-tools"}}]}
		]}`))
	}))
	defer srv.Close()

	cache := NewCatalogCache(itemstore.New(srv.URL, "token", 2*time.Second), "@every 10m")

	_, ok := cache.Platforms("")
	assert.False(t, ok, "no snapshot before the first refresh")
	assert.True(t, cache.UpdatedAt().IsZero())

	require.NoError(t, cache.Refresh(context.Background()))

	all, ok := cache.Platforms("")
	require.True(t, ok)
	assert.Len(t, all, 2)

	devTools, ok := cache.Platforms("dev-tools")
	require.True(t, ok)
	require.Len(t, devTools, 1)
	assert.Equal(t, model.ID("p2"), devTools[0].ID)

	none, ok := cache.Platforms("marketing")
	require.True(t, ok)
	assert.Empty(t, none)

	assert.False(t, cache.UpdatedAt().IsZero())
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlinkflow/backend/internal/resputil"
)

func newBoardRouter(t *testing.T, fake *fakeStore) (*gin.Engine, func()) {
	store, done := fake.client()
	mgr := NewBoardMgr(&RegisterConfig{Store: store})
	return sessionRouter(mgr, "u1", "user@example.com"), done
}

func trackingRow(id, projectID, platformID, status string) map[string]any {
	return map[string]any{
		"id":          id,
		"project_id":  projectID,
		"status":      status,
		"platform_id": map[string]any{"id": platformID, "name": "Platform " + platformID},
	}
}

func TestBoardListRequiresProjectID(t *testing.T) {
	fake := newFakeStore(t)
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/board", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int(resputil.InvalidRequest), decodeEnvelope(t, w).Code)
}

func TestBoardListScopedToOwner(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "u1")
	fake.onList("project_tracking", func(filter map[string]any) []map[string]any {
		assert.Equal(t, "proj1", filterEq(filter, "project_id"))
		return []map[string]any{trackingRow("t1", "proj1", "p1", "todo")}
	})
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/board?projectId=proj1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []struct {
			ID       string `json:"id"`
			Platform struct {
				Name string `json:"name"`
			} `json:"platform_id"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	require.Len(t, data.Items, 1)
	assert.Equal(t, "t1", data.Items[0].ID)
	assert.Equal(t, "Platform p1", data.Items[0].Platform.Name)
}

func TestBoardListForeignProjectIs404(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "someone-else")
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/board?projectId=proj1", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int(resputil.NotFound), decodeEnvelope(t, w).Code)
}

func TestBoardCreateDuplicate(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "u1")
	fake.onList("project_tracking", func(filter map[string]any) []map[string]any {
		if filterEq(filter, "platform_id") == "p1" {
			return []map[string]any{trackingRow("t1", "proj1", "p1", "todo")}
		}
		return nil
	})
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"projectId":"proj1","platformId":"p1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/board", body)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, int(resputil.Conflict), decodeEnvelope(t, w).Code)
	// the duplicate never reached the store
	assert.Empty(t, fake.created("project_tracking"))
}

func TestBoardCreate(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "u1")
	fake.onList("project_tracking", func(filter map[string]any) []map[string]any {
		if filterEq(filter, "id") == "t-new" {
			return []map[string]any{trackingRow("t-new", "proj1", "p2", "todo")}
		}
		return nil // no duplicate
	})
	fake.onCreate("project_tracking", func(body map[string]any) map[string]any {
		assert.Equal(t, "todo", body["status"])
		assert.Equal(t, "p2", body["platform_id"])
		return map[string]any{"id": "t-new", "project_id": "proj1", "platform_id": "p2", "status": "todo"}
	})
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/board",
		strings.NewReader(`{"projectId":"proj1","platformId":"p2"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var data struct {
		Item struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.Equal(t, "t-new", data.Item.ID)
	assert.Equal(t, "todo", data.Item.Status)
}

func TestBoardPatchRejectsUnknownStatus(t *testing.T) {
	fake := newFakeStore(t)
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/board/t1",
		strings.NewReader(`{"status":"done"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoardPatchEmptyBody(t *testing.T) {
	fake := newFakeStore(t)
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/board/t1", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBoardPatchLiveWithoutBacklink(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "u1")
	status := "submitted"
	fake.onList("project_tracking", func(filter map[string]any) []map[string]any {
		if filterEq(filter, "id") == "t1" {
			return []map[string]any{trackingRow("t1", "proj1", "p1", status)}
		}
		return nil
	})
	fake.onUpdate("project_tracking", func(id string, body map[string]any) map[string]any {
		assert.Equal(t, "t1", id)
		status = body["status"].(string)
		return trackingRow("t1", "proj1", "p1", status)
	})
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/board/t1",
		strings.NewReader(`{"status":"live"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		NeedsBacklink bool `json:"needsBacklink"`
		Item          struct {
			Status string `json:"status"`
		} `json:"item"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &data))
	assert.True(t, data.NeedsBacklink)
	assert.Equal(t, "live", data.Item.Status)
}

func TestBoardDelete(t *testing.T) {
	fake := newFakeStore(t)
	fake.ownedProject("proj1", "u1")
	fake.onList("project_tracking", func(filter map[string]any) []map[string]any {
		if filterEq(filter, "id") == "t1" {
			return []map[string]any{trackingRow("t1", "proj1", "p1", "todo")}
		}
		return nil
	})
	router, done := newBoardRouter(t, fake)
	defer done()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/board/t1", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"project_tracking/t1"}, fake.deletedPaths())
}

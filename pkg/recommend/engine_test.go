package recommend

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

type platformRow struct {
	id    string
	name  string
	da    int
	slugs []string
}

func platformJSON(p platformRow) string {
	cats := make([]string, 0, len(p.slugs))
	for _, slug := range p.slugs {
		cats = append(cats, fmt.Sprintf(
			`{"categories_id":{"id":"c-%s","slug":"%s","name":"%s"}}`, slug, slug, slug))
	}
	return fmt.Sprintf(`{"id":"%s","name":"%s","domain_authority":%d,"categories":[%s]}`,
		p.id, p.name, p.da, strings.Join(cats, ","))
}

// fakeStore answers the three candidate queries from a fixed scenario. It
// routes on the filter shape the same way the real store would.
type fakeStore struct {
	project     string // project response body, "" for no such project
	tagMatched  []platformRow
	general     []platformRow
	rejectedIDs []string

	tagCalls atomic.Int32
}

func (f *fakeStore) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		filter := r.URL.Query().Get("filter")
		switch {
		case strings.HasSuffix(r.URL.Path, "/items/projects"):
			if f.project == "" {
				_, _ = w.Write([]byte(`{"data":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"data":[` + f.project + `]}`))
		case strings.HasSuffix(r.URL.Path, "/items/platforms"):
			rows := f.general
			if strings.Contains(filter, "_in") {
				f.tagCalls.Add(1)
				rows = f.tagMatched
			}
			bodies := make([]string, 0, len(rows))
			for _, p := range rows {
				bodies = append(bodies, platformJSON(p))
			}
			_, _ = w.Write([]byte(`{"data":[` + strings.Join(bodies, ",") + `]}`))
		case strings.HasSuffix(r.URL.Path, "/items/project_tracking"):
			assert.Contains(t, filter, "rejected")
			rows := make([]string, 0, len(f.rejectedIDs))
			for _, id := range f.rejectedIDs {
				rows = append(rows, `{"platform_id":"`+id+`"}`)
			}
			_, _ = w.Write([]byte(`{"data":[` + strings.Join(rows, ",") + `]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestEngine(t *testing.T, fake *fakeStore) (*Engine, func()) {
	srv := httptest.NewServer(fake.handler(t))
	store := itemstore.New(srv.URL, "token", 2*time.Second)
	return NewEngine(store), srv.Close
}

const taggedProject = `{"id":"proj1","user_id":"u1","categories":[{"id":1,"categories_id":{"id":"c1","slug":"dev-tools","name":"Dev Tools"}}]}`

func scenario() *fakeStore {
	a := platformRow{id: "A", name: "Alpha", da: 50, slugs: []string{"dev-tools"}}
	b := platformRow{id: "B", name: "Beta", da: 90, slugs: []string{"general"}}
	c := platformRow{id: "C", name: "Gamma", da: 10, slugs: []string{"dev-tools", "general"}}
	return &fakeStore{
		project:    taggedProject,
		tagMatched: []platformRow{a, c},
		general:    []platformRow{b, c},
	}
}

func TestRecommendScoresAndOrders(t *testing.T) {
	engine, done := newTestEngine(t, scenario())
	defer done()

	result, err := engine.Recommend(context.Background(), "proj1", true)
	require.NoError(t, err)

	require.Len(t, result.Items, 3)
	// C matches both the project tag and general: 100 + 30. A tag-only: 100.
	// B general-only: 30. A platform never appears twice.
	assert.Equal(t, model.ID("C"), result.Items[0].ID)
	assert.Equal(t, 130, result.Items[0].Score)
	assert.Equal(t, model.ID("A"), result.Items[1].ID)
	assert.Equal(t, 100, result.Items[1].Score)
	assert.Equal(t, model.ID("B"), result.Items[2].ID)
	assert.Equal(t, 30, result.Items[2].Score)

	assert.Equal(t, []string{"dev-tools"}, result.TagSlugs)
	assert.Equal(t, model.ID("u1"), result.Project.UserID)

	// scores never increase down the list
	for i := 1; i < len(result.Items); i++ {
		assert.GreaterOrEqual(t, result.Items[i-1].Score, result.Items[i].Score)
	}
}

func TestRecommendTiesBreakOnDomainAuthority(t *testing.T) {
	fake := scenario()
	// two general-only platforms, same score, different authority
	fake.general = append(fake.general, platformRow{id: "E", name: "Echo", da: 95, slugs: []string{"general"}})
	engine, done := newTestEngine(t, fake)
	defer done()

	result, err := engine.Recommend(context.Background(), "proj1", true)
	require.NoError(t, err)
	require.Len(t, result.Items, 4)
	assert.Equal(t, model.ID("E"), result.Items[2].ID) // DA 95 over B's 90
	assert.Equal(t, model.ID("B"), result.Items[3].ID)
}

func TestRecommendExcludesRejected(t *testing.T) {
	fake := scenario()
	fake.rejectedIDs = []string{"B"}
	engine, done := newTestEngine(t, fake)
	defer done()

	result, err := engine.Recommend(context.Background(), "proj1", true)
	require.NoError(t, err)
	require.Len(t, result.Items, 2)
	for _, item := range result.Items {
		assert.NotEqual(t, model.ID("B"), item.ID)
	}

	// with the exclusion off, B is back
	result, err = engine.Recommend(context.Background(), "proj1", false)
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
}

func TestRecommendUntaggedProjectSkipsTagQuery(t *testing.T) {
	fake := scenario()
	fake.project = `{"id":"proj1","user_id":"u1","categories":[]}`
	engine, done := newTestEngine(t, fake)
	defer done()

	result, err := engine.Recommend(context.Background(), "proj1", true)
	require.NoError(t, err)
	assert.Empty(t, result.TagSlugs)
	require.Len(t, result.Items, 2) // general candidates only
	for _, item := range result.Items {
		assert.Equal(t, 30, item.Score)
	}
	assert.Equal(t, int32(0), fake.tagCalls.Load())
}

func TestRecommendUnknownProject(t *testing.T) {
	engine, done := newTestEngine(t, &fakeStore{})
	defer done()

	_, err := engine.Recommend(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = engine.ResolveProjectTags(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestResolveProjectTags(t *testing.T) {
	engine, done := newTestEngine(t, scenario())
	defer done()

	tags, err := engine.ResolveProjectTags(context.Background(), "proj1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dev-tools"}, tags)
}

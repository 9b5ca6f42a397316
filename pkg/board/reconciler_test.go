package board

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

var errServer = errors.New("server failure")

// fakeAPI is a scripted server: each operation can be told to fail, and every
// call is counted.
type fakeAPI struct {
	items []model.TrackingItem

	failCreate bool
	failDelete bool
	failUpdate bool

	createCalls int
	updateCalls int
	deleteCalls int

	lastPatch ItemPatch
}

func (f *fakeAPI) ListItems(_ context.Context, _ string) ([]model.TrackingItem, error) {
	out := make([]model.TrackingItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeAPI) CreateItem(_ context.Context, projectID, platformID string) (*model.TrackingItem, error) {
	f.createCalls++
	if f.failCreate {
		return nil, errServer
	}
	item := model.TrackingItem{
		ID:        model.ID("srv-" + platformID),
		ProjectID: model.ID(projectID),
		Platform:  itemstore.Ref[model.Platform](model.ID(platformID)),
		Status:    model.TrackingTodo,
	}
	f.items = append(f.items, item)
	return &item, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, itemID string, patch ItemPatch) (*model.TrackingItem, error) {
	f.updateCalls++
	f.lastPatch = patch
	if f.failUpdate {
		return nil, errServer
	}
	for i := range f.items {
		if f.items[i].ID == model.ID(itemID) {
			if patch.Status != nil {
				f.items[i].Status = *patch.Status
			}
			if patch.Notes != nil {
				f.items[i].Notes = patch.Notes
			}
			if patch.LiveBacklinkURL != nil {
				f.items[i].LiveBacklinkURL = patch.LiveBacklinkURL
			}
			item := f.items[i]
			return &item, nil
		}
	}
	return nil, errServer
}

func (f *fakeAPI) DeleteItem(_ context.Context, itemID string) error {
	f.deleteCalls++
	if f.failDelete {
		return errServer
	}
	for i := range f.items {
		if f.items[i].ID == model.ID(itemID) {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return errServer
}

func loadedReconciler(t *testing.T, api *fakeAPI) *Reconciler {
	r := NewReconciler(api, "proj1")
	require.NoError(t, r.Load(context.Background()))
	return r
}

func seedItem(id, platformID string, status model.TrackingStatus) model.TrackingItem {
	return model.TrackingItem{
		ID:        model.ID(id),
		ProjectID: "proj1",
		Platform:  itemstore.Ref[model.Platform](model.ID(platformID)),
		Status:    status,
	}
}

func TestAddConfirmsServerItem(t *testing.T) {
	api := &fakeAPI{}
	r := loadedReconciler(t, api)

	created, err := r.Add(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, model.ID("srv-p1"), created.ID)

	items := r.Items()
	require.Len(t, items, 1)
	// the temp id is gone, the server id stays
	assert.Equal(t, model.ID("srv-p1"), items[0].ID)
	assert.Equal(t, model.TrackingTodo, items[0].Status)
}

func TestAddDuplicateNeverHitsServer(t *testing.T) {
	api := &fakeAPI{items: []model.TrackingItem{seedItem("t1", "p1", model.TrackingTodo)}}
	r := loadedReconciler(t, api)

	_, err := r.Add(context.Background(), "p1")
	assert.ErrorIs(t, err, ErrAlreadyAdded)
	assert.Equal(t, 0, api.createCalls)
	assert.Len(t, r.Items(), 1)
}

func TestAddRollsBackOnFailure(t *testing.T) {
	api := &fakeAPI{failCreate: true}
	r := loadedReconciler(t, api)

	_, err := r.Add(context.Background(), "p1")
	assert.ErrorIs(t, err, errServer)
	assert.Empty(t, r.Items())
	assert.Equal(t, 1, api.createCalls)
}

func TestRemoveRollsBackOnFailure(t *testing.T) {
	seed := seedItem("t1", "p1", model.TrackingSubmitted)
	api := &fakeAPI{items: []model.TrackingItem{seed}, failDelete: true}
	r := loadedReconciler(t, api)

	err := r.Remove(context.Background(), "t1")
	assert.ErrorIs(t, err, errServer)

	items := r.Items()
	require.Len(t, items, 1)
	assert.Equal(t, seed, items[0])
}

func TestRemoveUnknownItem(t *testing.T) {
	r := loadedReconciler(t, &fakeAPI{})
	assert.ErrorIs(t, r.Remove(context.Background(), "nope"), ErrItemNotFound)
}

func TestUpdateStatusRestoresPreviousOnFailure(t *testing.T) {
	notes := "applied via directory form"
	seed := seedItem("t1", "p1", model.TrackingInProgress)
	seed.Notes = &notes
	api := &fakeAPI{items: []model.TrackingItem{seed}, failUpdate: true}
	r := loadedReconciler(t, api)

	_, err := r.UpdateStatus(context.Background(), "t1", model.TrackingSubmitted)
	assert.ErrorIs(t, err, errServer)

	items := r.Items()
	require.Len(t, items, 1)
	// only the status was rolled back; nothing else moved
	assert.Equal(t, model.TrackingInProgress, items[0].Status)
	assert.Equal(t, &notes, items[0].Notes)
}

func TestUpdateStatusLiveWithoutBacklinkFlags(t *testing.T) {
	api := &fakeAPI{items: []model.TrackingItem{seedItem("t1", "p1", model.TrackingSubmitted)}}
	r := loadedReconciler(t, api)

	result, err := r.UpdateStatus(context.Background(), "t1", model.TrackingLive)
	require.NoError(t, err)
	assert.True(t, result.NeedsBacklink)
	assert.Equal(t, model.TrackingLive, result.Item.Status)

	require.NoError(t, r.SetBacklinkURL(context.Background(), "t1", "https://example.com/listing"))

	// once the URL is recorded, re-entering live no longer asks for it
	result, err = r.UpdateStatus(context.Background(), "t1", model.TrackingLive)
	require.NoError(t, err)
	assert.False(t, result.NeedsBacklink)
}

func TestUpdateNotesConfirmsBeforeApplying(t *testing.T) {
	api := &fakeAPI{items: []model.TrackingItem{seedItem("t1", "p1", model.TrackingTodo)}, failUpdate: true}
	r := loadedReconciler(t, api)

	err := r.UpdateNotes(context.Background(), "t1", "requires paid plan")
	assert.ErrorIs(t, err, errServer)
	assert.Nil(t, r.Items()[0].Notes)

	api.failUpdate = false
	require.NoError(t, r.UpdateNotes(context.Background(), "t1", "requires paid plan"))
	require.NotNil(t, r.Items()[0].Notes)
	assert.Equal(t, "requires paid plan", *r.Items()[0].Notes)
	require.NotNil(t, api.lastPatch.Notes)
	assert.Nil(t, api.lastPatch.Status)
}

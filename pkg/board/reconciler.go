// Package board holds the client-resident tracking state for one project's
// kanban board. Mutations apply locally first (or, for the low-risk text
// fields, after confirmation) and reconcile against the server response:
// confirmed writes replace the tentative value, failed writes roll it back.
// Local state never claims success for a write the server rejected.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
)

var (
	// ErrAlreadyAdded reports that the platform is already on the board.
	ErrAlreadyAdded = errors.New("board: platform already added")
	// ErrItemNotFound reports that the item id is not in local state.
	ErrItemNotFound = errors.New("board: item not found")
)

// ItemPatch is a partial tracking-item update; nil fields are left untouched.
type ItemPatch struct {
	Status          *model.TrackingStatus `json:"status,omitempty"`
	Notes           *string               `json:"notes,omitempty"`
	LiveBacklinkURL *string               `json:"liveBacklinkUrl,omitempty"`
}

// API is the server surface the reconciler writes through.
type API interface {
	ListItems(ctx context.Context, projectID string) ([]model.TrackingItem, error)
	CreateItem(ctx context.Context, projectID, platformID string) (*model.TrackingItem, error)
	UpdateItem(ctx context.Context, itemID string, patch ItemPatch) (*model.TrackingItem, error)
	DeleteItem(ctx context.Context, itemID string) error
}

type Reconciler struct {
	api       API
	projectID string

	// opMu serializes mutating operations end to end, so two calls against
	// the same item cannot interleave their apply/reconcile phases.
	opMu sync.Mutex

	mu    sync.RWMutex
	items []model.TrackingItem
}

func NewReconciler(api API, projectID string) *Reconciler {
	return &Reconciler{api: api, projectID: projectID}
}

// Load replaces local state with the server's view of the board.
func (r *Reconciler) Load(ctx context.Context) error {
	items, err := r.api.ListItems(ctx, r.projectID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
	return nil
}

// Items returns a snapshot of the local board state.
func (r *Reconciler) Items() []model.TrackingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.TrackingItem, len(r.items))
	copy(out, r.items)
	return out
}

// Add puts the platform on the board in todo status. A tentative item is
// visible immediately; on confirmation it is replaced by the server item
// (server-assigned id and timestamps), on failure it is removed again and the
// error surfaced, leaving state exactly as before the call.
func (r *Reconciler) Add(ctx context.Context, platformID string) (*model.TrackingItem, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.findByPlatform(platformID) != nil {
		return nil, ErrAlreadyAdded
	}

	now := time.Now().UTC().Format(time.RFC3339)
	temp := model.TrackingItem{
		ID:          model.ID("temp-" + uuid.NewString()),
		ProjectID:   model.ID(r.projectID),
		Platform:    itemstore.Ref[model.Platform](model.ID(platformID)),
		Status:      model.TrackingTodo,
		DateCreated: now,
		DateUpdated: now,
	}
	r.mu.Lock()
	r.items = append(r.items, temp)
	r.mu.Unlock()

	created, err := r.api.CreateItem(ctx, r.projectID, platformID)
	if err != nil {
		r.removeByID(temp.ID)
		return nil, err
	}

	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == temp.ID {
			r.items[i] = *created
			break
		}
	}
	r.mu.Unlock()
	return created, nil
}

// Remove takes the item off the board immediately and deletes it on the
// server. On failure the removed item is re-inserted unchanged.
func (r *Reconciler) Remove(ctx context.Context, itemID string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	removed := r.removeByID(model.ID(itemID))
	if removed == nil {
		return ErrItemNotFound
	}

	if err := r.api.DeleteItem(ctx, itemID); err != nil {
		r.mu.Lock()
		r.items = append(r.items, *removed)
		r.mu.Unlock()
		return err
	}
	return nil
}

// StatusResult is the outcome of UpdateStatus. NeedsBacklink is set when the
// item entered live without a recorded backlink URL; interactive callers
// should collect one and follow up with SetBacklinkURL.
type StatusResult struct {
	Item          model.TrackingItem
	NeedsBacklink bool
}

// UpdateStatus moves the item to a new column. The change is visible
// immediately; on failure only the previous status value is restored.
func (r *Reconciler) UpdateStatus(ctx context.Context, itemID string, status model.TrackingStatus) (*StatusResult, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	item := r.findByID(model.ID(itemID))
	if item == nil {
		return nil, ErrItemNotFound
	}
	prev := item.Status
	r.setStatus(model.ID(itemID), status)

	if _, err := r.api.UpdateItem(ctx, itemID, ItemPatch{Status: &status}); err != nil {
		r.setStatus(model.ID(itemID), prev)
		return nil, err
	}

	current := r.findByID(model.ID(itemID))
	needsBacklink := status == model.TrackingLive &&
		(current.LiveBacklinkURL == nil || *current.LiveBacklinkURL == "")
	return &StatusResult{Item: *current, NeedsBacklink: needsBacklink}, nil
}

// UpdateNotes writes the notes through the server before touching local
// state, so a failed write cannot leave the board silently diverged.
func (r *Reconciler) UpdateNotes(ctx context.Context, itemID, notes string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.findByID(model.ID(itemID)) == nil {
		return ErrItemNotFound
	}
	if _, err := r.api.UpdateItem(ctx, itemID, ItemPatch{Notes: &notes}); err != nil {
		return err
	}
	r.apply(model.ID(itemID), func(it *model.TrackingItem) { it.Notes = &notes })
	return nil
}

// SetBacklinkURL records the live backlink URL, confirm-then-apply like
// UpdateNotes.
func (r *Reconciler) SetBacklinkURL(ctx context.Context, itemID, url string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if r.findByID(model.ID(itemID)) == nil {
		return ErrItemNotFound
	}
	if _, err := r.api.UpdateItem(ctx, itemID, ItemPatch{LiveBacklinkURL: &url}); err != nil {
		return err
	}
	r.apply(model.ID(itemID), func(it *model.TrackingItem) { it.LiveBacklinkURL = &url })
	return nil
}

func (r *Reconciler) findByID(id model.ID) *model.TrackingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.items {
		if r.items[i].ID == id {
			item := r.items[i]
			return &item
		}
	}
	return nil
}

func (r *Reconciler) findByPlatform(platformID string) *model.TrackingItem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.items {
		if r.items[i].Platform.ID == model.ID(platformID) {
			item := r.items[i]
			return &item
		}
	}
	return nil
}

func (r *Reconciler) removeByID(id model.ID) *model.TrackingItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			removed := r.items[i]
			r.items = append(r.items[:i], r.items[i+1:]...)
			return &removed
		}
	}
	return nil
}

func (r *Reconciler) setStatus(id model.ID, status model.TrackingStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = status
			return
		}
	}
}

// apply mutates the stored item in place, keeping fields the server response
// does not carry (expanded platform relations) intact.
func (r *Reconciler) apply(id model.ID, fn func(*model.TrackingItem)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			fn(&r.items[i])
			return
		}
	}
}

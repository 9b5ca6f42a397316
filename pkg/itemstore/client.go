// Package itemstore is the HTTP client for the headless content backend that
// owns every collection (platforms, categories, users, projects, tracking
// items). The backend exposes a generic item API: list with filter, field
// projection and sort, plus create/update/delete by id.
package itemstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/imroc/req/v3"
)

type Client struct {
	http *req.Client
}

// New creates a client for the store at baseURL, authenticating every request
// with the given static token. Each call is bounded by timeout; a timeout is
// surfaced as an upstream error and left to the caller to retry.
func New(baseURL, token string, timeout time.Duration) *Client {
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetCommonBearerAuthToken(token)
	return &Client{http: c}
}

func (c *Client) Items(collection string) *Collection {
	return &Collection{client: c, name: collection}
}

// Collection scopes item operations to a single collection.
type Collection struct {
	client *Client
	name   string
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

func (col *Collection) path() string {
	return "/items/" + col.name
}

// List fetches items matching q and decodes the result into out, which must
// be a pointer to a slice.
func (col *Collection) List(ctx context.Context, q Query, out any) error {
	params, err := q.params()
	if err != nil {
		return fmt.Errorf("itemstore: encode query for %s: %w", col.name, err)
	}

	var env envelope
	resp, err := col.client.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetSuccessResult(&env).
		Get(col.path())
	if err != nil {
		return &UpstreamError{Collection: col.name, Op: "list", Err: err}
	}
	if resp.IsErrorState() {
		return col.statusError("list", resp.StatusCode)
	}
	return decodeData(env.Data, out)
}

// Create inserts payload as a new item. When out is non-nil the created item
// (with server-assigned id and timestamps) is decoded into it.
func (col *Collection) Create(ctx context.Context, payload, out any) error {
	var env envelope
	resp, err := col.client.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetSuccessResult(&env).
		Post(col.path())
	if err != nil {
		return &UpstreamError{Collection: col.name, Op: "create", Err: err}
	}
	if resp.IsErrorState() {
		return col.statusError("create", resp.StatusCode)
	}
	return decodeData(env.Data, out)
}

// Update patches the item with the given id. Only the fields present in patch
// are written.
func (col *Collection) Update(ctx context.Context, id string, patch, out any) error {
	var env envelope
	resp, err := col.client.http.R().
		SetContext(ctx).
		SetBody(patch).
		SetSuccessResult(&env).
		Patch(col.path() + "/" + id)
	if err != nil {
		return &UpstreamError{Collection: col.name, Op: "update", Err: err}
	}
	if resp.IsErrorState() {
		return col.statusError("update", resp.StatusCode)
	}
	return decodeData(env.Data, out)
}

func (col *Collection) Delete(ctx context.Context, id string) error {
	resp, err := col.client.http.R().
		SetContext(ctx).
		Delete(col.path() + "/" + id)
	if err != nil {
		return &UpstreamError{Collection: col.name, Op: "delete", Err: err}
	}
	if resp.IsErrorState() {
		return col.statusError("delete", resp.StatusCode)
	}
	return nil
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}

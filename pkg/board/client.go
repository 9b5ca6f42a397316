package board

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/imroc/req/v3"

	"github.com/backlinkflow/backend/pkg/model"
)

// Client implements API against the backend's REST surface, authenticating
// with the caller's session cookie.
type Client struct {
	http *req.Client
}

func NewClient(baseURL, sessionToken string, timeout time.Duration) *Client {
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetCommonCookies(&http.Cookie{Name: "session", Value: sessionToken})
	return &Client{http: c}
}

// Server error codes that matter to the reconciler; the rest surface as
// generic errors. Kept in sync with internal/resputil.
const codeConflict = 40901

type apiEnvelope[T any] struct {
	Code int    `json:"code"`
	Data T      `json:"data"`
	Msg  string `json:"msg"`
}

type itemsData struct {
	Items []model.TrackingItem `json:"items"`
}

type itemData struct {
	Item model.TrackingItem `json:"item"`
}

func (c *Client) ListItems(ctx context.Context, projectID string) ([]model.TrackingItem, error) {
	var env apiEnvelope[itemsData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("projectId", projectID).
		SetSuccessResult(&env).
		Get("/api/board")
	if err != nil {
		return nil, fmt.Errorf("board: list: %w", err)
	}
	if resp.IsErrorState() {
		return nil, apiError("list", resp.StatusCode, resp.String())
	}
	return env.Data.Items, nil
}

func (c *Client) CreateItem(ctx context.Context, projectID, platformID string) (*model.TrackingItem, error) {
	var env apiEnvelope[itemData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"projectId": projectID, "platformId": platformID}).
		SetSuccessResult(&env).
		SetErrorResult(&env).
		Post("/api/board")
	if err != nil {
		return nil, fmt.Errorf("board: create: %w", err)
	}
	if resp.IsErrorState() {
		if env.Code == codeConflict {
			return nil, ErrAlreadyAdded
		}
		return nil, apiError("create", resp.StatusCode, env.Msg)
	}
	item := env.Data.Item
	return &item, nil
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, patch ItemPatch) (*model.TrackingItem, error) {
	var env apiEnvelope[itemData]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(patch).
		SetSuccessResult(&env).
		Patch("/api/board/" + itemID)
	if err != nil {
		return nil, fmt.Errorf("board: update: %w", err)
	}
	if resp.IsErrorState() {
		return nil, apiError("update", resp.StatusCode, resp.String())
	}
	item := env.Data.Item
	return &item, nil
}

func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		Delete("/api/board/" + itemID)
	if err != nil {
		return fmt.Errorf("board: delete: %w", err)
	}
	if resp.IsErrorState() {
		return apiError("delete", resp.StatusCode, resp.String())
	}
	return nil
}

func apiError(op string, status int, msg string) error {
	return fmt.Errorf("board: %s: server returned %d: %s", op, status, msg)
}

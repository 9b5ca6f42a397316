package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imroc/req/v3"

	"github.com/backlinkflow/backend/pkg/model"
)

const (
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v1/userinfo"
)

type Google struct {
	clientID     string
	clientSecret string
	redirectURL  string
	http         *req.Client
}

func NewGoogle(clientID, clientSecret, redirectURL string, timeout time.Duration) *Google {
	return &Google{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		http:         req.C().SetTimeout(timeout),
	}
}

func (g *Google) Name() model.AuthProvider { return model.ProviderGoogle }

func (g *Google) Exchange(ctx context.Context, code string) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"code":          code,
			"client_id":     g.clientID,
			"client_secret": g.clientSecret,
			"redirect_uri":  g.redirectURL,
			"grant_type":    "authorization_code",
		}).
		SetSuccessResult(&result).
		Post(googleTokenURL)
	if err != nil {
		return "", fmt.Errorf("google token exchange: %w", err)
	}
	if resp.IsErrorState() || result.AccessToken == "" {
		return "", fmt.Errorf("google token exchange failed: %s", result.Error)
	}
	return result.AccessToken, nil
}

func (g *Google) FetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	var gUser struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetBearerAuthToken(accessToken).
		SetSuccessResult(&gUser).
		Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("google user info: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("google user info failed: status %d", resp.StatusCode)
	}
	if gUser.Email == "" {
		return nil, errors.New("google account has no email")
	}
	name := gUser.Name
	if name == "" {
		name = gUser.Email
	}
	return &UserInfo{
		Email:      gUser.Email,
		Name:       name,
		AvatarURL:  gUser.Picture,
		ProviderID: gUser.ID,
	}, nil
}

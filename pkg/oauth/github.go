package oauth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/imroc/req/v3"

	"github.com/backlinkflow/backend/pkg/model"
)

const (
	githubTokenURL  = "https://github.com/login/oauth/access_token"
	githubUserURL   = "https://api.github.com/user"
	githubEmailsURL = "https://api.github.com/user/emails"
)

type GitHub struct {
	clientID     string
	clientSecret string
	redirectURL  string
	http         *req.Client
}

func NewGitHub(clientID, clientSecret, redirectURL string, timeout time.Duration) *GitHub {
	return &GitHub{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		http:         req.C().SetTimeout(timeout),
	}
}

func (g *GitHub) Name() model.AuthProvider { return model.ProviderGitHub }

func (g *GitHub) Exchange(ctx context.Context, code string) (string, error) {
	var result struct {
		AccessToken string `json:"access_token"`
		Error       string `json:"error"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetBody(map[string]string{
			"client_id":     g.clientID,
			"client_secret": g.clientSecret,
			"code":          code,
			"redirect_uri":  g.redirectURL,
		}).
		SetSuccessResult(&result).
		Post(githubTokenURL)
	if err != nil {
		return "", fmt.Errorf("github token exchange: %w", err)
	}
	if resp.IsErrorState() || result.Error != "" || result.AccessToken == "" {
		return "", fmt.Errorf("github token exchange failed: %s", result.Error)
	}
	return result.AccessToken, nil
}

func (g *GitHub) FetchUser(ctx context.Context, accessToken string) (*UserInfo, error) {
	var ghUser struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetBearerAuthToken(accessToken).
		SetHeader("Accept", "application/json").
		SetSuccessResult(&ghUser).
		Get(githubUserURL)
	if err != nil {
		return nil, fmt.Errorf("github user info: %w", err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("github user info failed: status %d", resp.StatusCode)
	}

	email := ghUser.Email
	if email == "" {
		// The account email may be private; the emails endpoint still lists it.
		email, err = g.fetchPrimaryEmail(ctx, accessToken)
		if err != nil {
			return nil, err
		}
	}
	if email == "" {
		return nil, errors.New("github account has no usable email")
	}

	name := ghUser.Name
	if name == "" {
		name = ghUser.Login
	}
	return &UserInfo{
		Email:      email,
		Name:       name,
		AvatarURL:  ghUser.AvatarURL,
		ProviderID: strconv.FormatInt(ghUser.ID, 10),
	}, nil
}

func (g *GitHub) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetBearerAuthToken(accessToken).
		SetHeader("Accept", "application/json").
		SetSuccessResult(&emails).
		Get(githubEmailsURL)
	if err != nil {
		return "", fmt.Errorf("github emails: %w", err)
	}
	if resp.IsErrorState() {
		return "", fmt.Errorf("github emails failed: status %d", resp.StatusCode)
	}
	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", nil
}

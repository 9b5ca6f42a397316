// Package oauth exchanges authorization codes with the identity providers
// and fetches the signed-in user's profile. Only the code-exchange leg is
// implemented here; the authorize redirect is built by the frontend.
package oauth

import (
	"context"

	"github.com/backlinkflow/backend/pkg/model"
)

// UserInfo is the provider-agnostic profile used to find or create a user.
type UserInfo struct {
	Email      string
	Name       string
	AvatarURL  string
	ProviderID string
}

type Provider interface {
	Name() model.AuthProvider
	// Exchange trades the authorization code for an access token.
	Exchange(ctx context.Context, code string) (string, error)
	// FetchUser loads the profile behind the access token. An empty email is
	// an error: accounts are keyed by email.
	FetchUser(ctx context.Context, accessToken string) (*UserInfo, error)
}

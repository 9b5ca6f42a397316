package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/klog/v2"

	"github.com/backlinkflow/backend/internal/resputil"
	"github.com/backlinkflow/backend/internal/util"
	"github.com/backlinkflow/backend/pkg/config"
	"github.com/backlinkflow/backend/pkg/itemstore"
	"github.com/backlinkflow/backend/pkg/model"
	"github.com/backlinkflow/backend/pkg/oauth"
)

func init() {
	Registers = append(Registers, NewAuthMgr)
}

type AuthMgr struct {
	name      string
	store     *itemstore.Client
	providers map[string]oauth.Provider
}

func NewAuthMgr(conf *RegisterConfig) Manager {
	return &AuthMgr{
		name:      "auth",
		store:     conf.Store,
		providers: conf.Providers,
	}
}

func (mgr *AuthMgr) GetName() string { return mgr.name }

func (mgr *AuthMgr) RegisterPublic(g *gin.RouterGroup) {
	g.POST("/sign-up", mgr.SignUp)
	g.POST("/sign-in", mgr.SignIn)
	g.POST("/logout", mgr.Logout)
	g.GET("/callback/:provider", mgr.Callback)
}

func (mgr *AuthMgr) RegisterProtected(g *gin.RouterGroup) {
	g.GET("/me", mgr.Me)
}

func (mgr *AuthMgr) RegisterAdmin(_ *gin.RouterGroup) {}

var userFields = []string{
	"id", "email", "name", "avatar_url", "auth_provider", "provider_id",
	"password_hash", "date_created", "last_login",
}

type SignUpReq struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignUp godoc
//
//	@Summary		Register with email and password
//	@Description	Creates the account and signs the caller in
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	resputil.Response[any]
//	@Failure		400	{object}	resputil.Response[any]	"invalid payload or email already registered"
//	@Router			/auth/sign-up [post]
func (mgr *AuthMgr) SignUp(c *gin.Context) {
	var req SignUpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "email, name and a password of at least 8 characters are required", resputil.InvalidRequest)
		return
	}
	email := normalizeEmail(req.Email)

	existing, err := mgr.findUserByEmail(c.Request.Context(), email)
	if err != nil {
		klog.Errorf("look up user %s: %v", email, err)
		resputil.Error(c, "Failed to create account", resputil.Upstream)
		return
	}
	if existing != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "Email is already registered", resputil.EmailRegistered)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		resputil.Error(c, "Failed to create account", resputil.NotSpecified)
		return
	}

	var created model.User
	err = mgr.store.Items(model.CollectionUsers).Create(c.Request.Context(), gin.H{
		"email":         email,
		"name":          req.Name,
		"auth_provider": model.ProviderEmail,
		"password_hash": string(hash),
		"last_login":    nowISO(),
	}, &created)
	if err != nil {
		klog.Errorf("create user %s: %v", email, err)
		resputil.Error(c, "Failed to create account", resputil.Upstream)
		return
	}

	if !mgr.issueSession(c, created) {
		return
	}
	resputil.Created(c, gin.H{"user": created.Public()})
}

type SignInReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignIn godoc
//
//	@Summary	Sign in with email and password
//	@Tags		Auth
//	@Accept		json
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Failure	401	{object}	resputil.Response[any]	"unknown email or wrong password"
//	@Router		/auth/sign-in [post]
func (mgr *AuthMgr) SignIn(c *gin.Context) {
	var req SignInReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resputil.HTTPError(c, http.StatusBadRequest, "email and password are required", resputil.InvalidRequest)
		return
	}

	user, err := mgr.findUserByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		klog.Errorf("look up user for sign-in: %v", err)
		resputil.Error(c, "Failed to sign in", resputil.Upstream)
		return
	}
	// OAuth-only accounts carry no hash; they fail the same way as a wrong
	// password.
	if user == nil || user.PasswordHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)) != nil {
		resputil.HTTPError(c, http.StatusUnauthorized, "Invalid email or password", resputil.InvalidCredentials)
		return
	}

	mgr.touchLastLogin(c.Request.Context(), string(user.ID))
	if !mgr.issueSession(c, *user) {
		return
	}
	resputil.Success(c, gin.H{"user": user.Public()})
}

// Logout clears the session cookie; the token itself simply expires.
func (mgr *AuthMgr) Logout(c *gin.Context) {
	util.ClearSessionCookie(c)
	resputil.Success(c, gin.H{"loggedOut": true})
}

// Me godoc
//
//	@Summary	The signed-in user's profile
//	@Tags		Auth
//	@Produce	json
//	@Success	200	{object}	resputil.Response[any]
//	@Failure	404	{object}	resputil.Response[any]
//	@Router		/auth/me [get]
func (mgr *AuthMgr) Me(c *gin.Context) {
	session := util.GetSession(c)
	user, err := mgr.findUserByID(c.Request.Context(), session.UserID)
	if err != nil {
		klog.Errorf("load user %s: %v", session.UserID, err)
		resputil.Error(c, "Failed to load profile", resputil.Upstream)
		return
	}
	if user == nil {
		resputil.HTTPError(c, http.StatusNotFound, "User not found", resputil.NotFound)
		return
	}
	resputil.Success(c, gin.H{"user": user.Public()})
}

// Callback finishes the OAuth flow: exchange the code, load the profile,
// find or create the account, then set the cookie and send the browser back
// into the app. Failures redirect to the sign-in page, never render JSON.
func (mgr *AuthMgr) Callback(c *gin.Context) {
	provider, ok := mgr.providers[c.Param("provider")]
	if !ok {
		mgr.failRedirect(c, "unknown_provider")
		return
	}
	code := c.Query("code")
	if code == "" {
		mgr.failRedirect(c, "missing_code")
		return
	}

	ctx := c.Request.Context()
	accessToken, err := provider.Exchange(ctx, code)
	if err != nil {
		klog.Errorf("%s code exchange: %v", provider.Name(), err)
		mgr.failRedirect(c, "exchange_failed")
		return
	}
	info, err := provider.FetchUser(ctx, accessToken)
	if err != nil {
		klog.Errorf("%s profile fetch: %v", provider.Name(), err)
		mgr.failRedirect(c, "profile_failed")
		return
	}

	user, err := mgr.findOrCreateOAuthUser(ctx, provider.Name(), info)
	if err != nil {
		klog.Errorf("provision %s user %s: %v", provider.Name(), info.Email, err)
		mgr.failRedirect(c, "account_failed")
		return
	}

	token, err := util.GetTokenMgr().CreateSession(util.SessionInfo{
		UserID: string(user.ID),
		Email:  user.Email,
	})
	if err != nil {
		klog.Errorf("sign session for %s: %v", user.Email, err)
		mgr.failRedirect(c, "session_failed")
		return
	}
	util.SetSessionCookie(c, token)

	c.Redirect(http.StatusFound, config.GetConfig().AppURL+safeReturnPath(c.Query("state")))
}

// findOrCreateOAuthUser keys accounts by email: an existing account gains the
// provider link, a new one is created without a password.
func (mgr *AuthMgr) findOrCreateOAuthUser(ctx context.Context, provider model.AuthProvider, info *oauth.UserInfo) (*model.User, error) {
	email := normalizeEmail(info.Email)
	user, err := mgr.findUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user != nil {
		patch := gin.H{"last_login": nowISO(), "provider_id": info.ProviderID}
		if info.AvatarURL != "" {
			patch["avatar_url"] = info.AvatarURL
		}
		var updated model.User
		if err := mgr.store.Items(model.CollectionUsers).Update(ctx, string(user.ID), patch, &updated); err != nil {
			return nil, err
		}
		if updated.ID != "" {
			return &updated, nil
		}
		return user, nil
	}

	payload := gin.H{
		"email":         email,
		"name":          info.Name,
		"auth_provider": provider,
		"provider_id":   info.ProviderID,
		"last_login":    nowISO(),
	}
	if info.AvatarURL != "" {
		payload["avatar_url"] = info.AvatarURL
	}
	var created model.User
	if err := mgr.store.Items(model.CollectionUsers).Create(ctx, payload, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (mgr *AuthMgr) findUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return mgr.findUser(ctx, itemstore.Filter{"email": itemstore.Eq(email)})
}

func (mgr *AuthMgr) findUserByID(ctx context.Context, id string) (*model.User, error) {
	return mgr.findUser(ctx, itemstore.Filter{"id": itemstore.Eq(id)})
}

func (mgr *AuthMgr) findUser(ctx context.Context, filter itemstore.Filter) (*model.User, error) {
	var users []model.User
	err := mgr.store.Items(model.CollectionUsers).List(ctx, itemstore.Query{
		Filter: filter,
		Fields: userFields,
		Limit:  1,
	}, &users)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (mgr *AuthMgr) touchLastLogin(ctx context.Context, userID string) {
	if err := mgr.store.Items(model.CollectionUsers).Update(ctx, userID, gin.H{"last_login": nowISO()}, nil); err != nil {
		klog.Errorf("update last_login for %s: %v", userID, err)
	}
}

func (mgr *AuthMgr) issueSession(c *gin.Context, user model.User) bool {
	token, err := util.GetTokenMgr().CreateSession(util.SessionInfo{
		UserID: string(user.ID),
		Email:  user.Email,
	})
	if err != nil {
		klog.Errorf("sign session for %s: %v", user.Email, err)
		resputil.Error(c, "Failed to sign in", resputil.NotSpecified)
		return false
	}
	util.SetSessionCookie(c, token)
	return true
}

func (mgr *AuthMgr) failRedirect(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, config.GetConfig().AppURL+"/sign-in?error="+url.QueryEscape(reason))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// safeReturnPath accepts only app-relative paths from the OAuth state, so a
// forged state cannot bounce the browser to another origin.
func safeReturnPath(state string) string {
	if strings.HasPrefix(state, "/") && !strings.HasPrefix(state, "//") {
		return state
	}
	return "/dashboard"
}

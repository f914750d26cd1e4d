package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	googleoauth "golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"github.com/songbirdapp/songbird/birds"
	"github.com/songbirdapp/songbird/config"
	"github.com/songbirdapp/songbird/models"
	"github.com/songbirdapp/songbird/store"
	"github.com/songbirdapp/songbird/utils"
)

const tokenLifetime = 7 * 24 * time.Hour

// AuthController handles registration, login and OAuth sign-in.
type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// Register creates a password account and grants the default bird.
func (c *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "username and a password of at least 8 characters are required")
		return
	}

	if !utils.AllowAction(ctx.Request.Context(), "register", ctx.ClientIP(), 5, time.Hour) {
		utils.Error(ctx, http.StatusTooManyRequests, 42900, "too many signups from this address, try later")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to create account")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		SelectedBird: birds.DefaultBirdID(),
		RegisterIP:   ctx.ClientIP(),
	}
	if err := c.DB.Create(&user).Error; err != nil {
		utils.Error(ctx, http.StatusConflict, 40900, "username is already taken")
		return
	}

	if err := birds.NewService(store.New(c.DB)).InitializeDefault(user.ID); err != nil {
		utils.Sugar.Warnf("initialize default bird for user %d: %v", user.ID, err)
	}

	c.issueToken(ctx, &user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT.
func (c *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "username and password are required")
		return
	}

	var user models.User
	err := c.DB.Where("username = ?", req.Username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !utils.CheckPassword(user.PasswordHash, req.Password)) {
		utils.Error(ctx, http.StatusUnauthorized, 40103, "invalid username or password")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to log in")
		return
	}

	c.issueToken(ctx, &user)
}

// Logout revokes the presented token for its remaining lifetime.
func (c *AuthController) Logout(ctx *gin.Context) {
	tokenVal, ok := ctx.Get("token")
	if !ok {
		utils.Success(ctx, nil)
		return
	}
	token := tokenVal.(string)
	if claims, err := utils.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(ctx.Request.Context(), token, time.Until(claims.ExpiresAt.Time))
	}
	utils.Success(ctx, nil)
}

// Me returns the authenticated user's profile.
func (c *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	var user models.User
	if err := c.DB.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40400, "user not found")
		return
	}
	utils.Success(ctx, user)
}

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatar_url"`
}

// UpdateProfile edits the caller's display fields.
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40000, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = utils.Sanitize(*req.DisplayName)
	}
	if req.Bio != nil {
		updates["bio"] = utils.Sanitize(*req.Bio)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}
	if len(updates) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40000, "nothing to update")
		return
	}

	if err := c.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to update profile")
		return
	}
	var user models.User
	_ = c.DB.First(&user, userID).Error
	utils.Success(ctx, user)
}

type publicProfile struct {
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	AvatarURL    string `json:"avatar_url"`
	Bio          string `json:"bio"`
	SelectedBird string `json:"selected_bird"`
	IsPremium    bool   `json:"is_premium"`
}

// ProfileByUsername returns the public view of a user.
func (c *AuthController) ProfileByUsername(ctx *gin.Context) {
	var user models.User
	err := c.DB.Where("username = ?", ctx.Param("username")).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40400, "user not found")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to load user")
		return
	}
	utils.Success(ctx, publicProfile{
		Username:     user.Username,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
		Bio:          user.Bio,
		SelectedBird: user.SelectedBird,
		IsPremium:    user.IsPremium,
	})
}

func (c *AuthController) issueToken(ctx *gin.Context, user *models.User) {
	token, err := utils.GenerateToken(user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to issue token")
		return
	}
	utils.Success(ctx, gin.H{"token": token, "user": user})
}

// --- OAuth sign-in ---

func (c *AuthController) oauthConfig(provider string) (*oauth2.Config, bool) {
	cfg := config.Get()
	switch provider {
	case "github":
		if cfg.GithubClientID == "" {
			return nil, false
		}
		return &oauth2.Config{
			ClientID:     cfg.GithubClientID,
			ClientSecret: cfg.GithubClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  cfg.BaseURL + "/api/v1/auth/oauth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
		}, true
	case "google":
		if cfg.GoogleClientID == "" {
			return nil, false
		}
		return &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     googleoauth.Endpoint,
			RedirectURL:  cfg.BaseURL + "/api/v1/auth/oauth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}, true
	}
	return nil, false
}

// OAuthRedirect starts the OAuth flow for the given provider.
func (c *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	conf, ok := c.oauthConfig(provider)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40400, "unknown or unconfigured provider")
		return
	}
	state, err := utils.NewOAuthState(ctx.Request.Context())
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to start oauth flow")
		return
	}
	ctx.Redirect(http.StatusFound, conf.AuthCodeURL(state))
}

// OAuthCallback completes the flow: validates state, exchanges the code,
// fetches the provider identity and signs the user in (creating the account
// on first sight).
func (c *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	conf, ok := c.oauthConfig(provider)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40400, "unknown or unconfigured provider")
		return
	}
	if !utils.ConsumeOAuthState(ctx.Request.Context(), ctx.Query("state")) {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid or expired oauth state")
		return
	}

	token, err := conf.Exchange(ctx.Request.Context(), ctx.Query("code"))
	if err != nil {
		utils.Sugar.Warnf("oauth exchange with %s: %v", provider, err)
		utils.Error(ctx, http.StatusBadGateway, 50200, "oauth exchange failed")
		return
	}

	identity, err := fetchOAuthIdentity(ctx, conf, provider, token)
	if err != nil {
		utils.Sugar.Warnf("fetch %s identity: %v", provider, err)
		utils.Error(ctx, http.StatusBadGateway, 50201, "failed to fetch provider profile")
		return
	}

	var user models.User
	err = c.DB.Where("provider = ? AND provider_id = ?", provider, identity.ID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:     uniqueUsername(c.DB, identity.Login),
			Email:        identity.Email,
			Provider:     provider,
			ProviderID:   identity.ID,
			DisplayName:  identity.Name,
			AvatarURL:    identity.AvatarURL,
			SelectedBird: birds.DefaultBirdID(),
			RegisterIP:   ctx.ClientIP(),
		}
		if err := c.DB.Create(&user).Error; err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to create account")
			return
		}
		if err := birds.NewService(store.New(c.DB)).InitializeDefault(user.ID); err != nil {
			utils.Sugar.Warnf("initialize default bird for user %d: %v", user.ID, err)
		}
	} else if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to log in")
		return
	}

	jwtToken, err := utils.GenerateToken(user.ID, user.Username, tokenLifetime)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50000, "failed to issue token")
		return
	}
	ctx.Redirect(http.StatusFound, config.Get().FrontendURL+"/auth/callback?token="+jwtToken)
}

type oauthIdentity struct {
	ID        string
	Login     string
	Name      string
	Email     string
	AvatarURL string
}

func fetchOAuthIdentity(ctx *gin.Context, conf *oauth2.Config, provider string, token *oauth2.Token) (*oauthIdentity, error) {
	client := conf.Client(ctx.Request.Context(), token)

	var url string
	switch provider {
	case "github":
		url = "https://api.github.com/user"
	case "google":
		url = "https://www.googleapis.com/oauth2/v2/userinfo"
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	switch provider {
	case "github":
		var gh struct {
			ID        int64  `json:"id"`
			Login     string `json:"login"`
			Name      string `json:"name"`
			Email     string `json:"email"`
			AvatarURL string `json:"avatar_url"`
		}
		if err := json.Unmarshal(body, &gh); err != nil {
			return nil, err
		}
		return &oauthIdentity{
			ID:        fmt.Sprintf("%d", gh.ID),
			Login:     gh.Login,
			Name:      gh.Name,
			Email:     gh.Email,
			AvatarURL: gh.AvatarURL,
		}, nil
	case "google":
		var gg struct {
			ID      string `json:"id"`
			Name    string `json:"name"`
			Email   string `json:"email"`
			Picture string `json:"picture"`
		}
		if err := json.Unmarshal(body, &gg); err != nil {
			return nil, err
		}
		login := gg.Email
		if i := strings.IndexByte(login, '@'); i > 0 {
			login = login[:i]
		}
		return &oauthIdentity{
			ID:        gg.ID,
			Login:     login,
			Name:      gg.Name,
			Email:     gg.Email,
			AvatarURL: gg.Picture,
		}, nil
	}
	return nil, fmt.Errorf("unknown provider %s", provider)
}

// uniqueUsername derives an unused username from the provider login.
func uniqueUsername(db *gorm.DB, base string) string {
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		base = "songbird"
	}
	candidate := base
	for i := 1; ; i++ {
		var count int64
		if err := db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil || count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
}

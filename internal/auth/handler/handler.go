package handler

import (
	"errors"
	"net/http"

	"identity-service/internal/auth"
	"identity-service/internal/auth/credentials"
	"identity-service/internal/auth/provider/google"
	"identity-service/internal/auth/service"
	"identity-service/internal/logger"
	"identity-service/internal/middleware"
	"identity-service/internal/session"
	"identity-service/internal/user"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc    *service.Service
	google *google.Verifier
}

func NewHandler(svc *service.Service, googleVerifier *google.Verifier) *Handler {
	return &Handler{
		svc:    svc,
		google: googleVerifier,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/apple", h.AppleLogin)
	r.POST("/auth/google", h.GoogleLogin)
	r.POST("/users/register", h.Register)
	r.POST("/auth/logout", h.Logout)

	r.GET("/oauth/login/google", h.browserLogin)
	r.GET("/oauth/callback/google", h.browserCallback)

	users := r.Group("/users")
	users.Use(requireAuth)
	users.GET("/profile", h.GetProfile)
	users.POST("/edit", h.EditProfile)
}

// browserLogin starts the redirect-based Google flow for web clients.
// Mobile clients verify on-device and use POST /auth/google instead.
func (h *Handler) browserLogin(c *gin.Context) {
	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := h.google.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) browserCallback(c *gin.Context) {
	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"error": errParam,
			"desc":  c.Query("error_description"),
		})
		c.Redirect(http.StatusFound, "/")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	claim, err := h.google.ExchangeCode(
		c.Request.Context(),
		code,
		codeVerifier,
	)
	if err != nil {
		authFailure(c)
		return
	}

	token, err := h.svc.LoginWithClaim(c.Request.Context(), claim)
	if err != nil {
		writeError(c, err)
		return
	}

	session.SetCookie(c.Writer, token.AccessToken, token.ExpiresAt, session.CookieOptions{
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	c.JSON(http.StatusOK, tokenResponse(token))
}

func (h *Handler) Logout(c *gin.Context) {
	// Tokens are stateless; logout just clears the browser cookie.
	session.ClearCookie(c.Writer, session.CookieOptions{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetProfile(c *gin.Context) {
	userID := middleware.UserID(c)

	u, err := h.svc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, profileResponse(u))
}

func tokenResponse(t *service.Token) gin.H {
	return gin.H{
		"access_token": t.AccessToken,
		"token_type":   "Bearer",
		"expires_at":   t.ExpiresAt.UTC(),
	}
}

func profileResponse(u *user.User) gin.H {
	return gin.H{
		"user_id":      u.ID,
		"email":        u.Email,
		"username":     u.Username,
		"avatar_url":   u.AvatarURL,
		"bio":          u.Bio,
		"locale":       u.Locale,
		"timezone":     u.Timezone,
		"device_token": u.DeviceToken,
		"push_enabled": u.PushEnabled,
		"is_active":    u.IsActive,
		"created_at":   u.CreatedAt,
		"updated_at":   u.UpdatedAt,
		"last_login":   u.LastLogin,
	}
}

// authFailure is the single response shape for every failed
// authentication. Unknown email, wrong password, bad assertion, and a
// provider outage mid-login are indistinguishable to the caller.
func authFailure(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrExpiredAssertion),
		errors.Is(err, auth.ErrProviderUnreachable):
		authFailure(c)
	case errors.Is(err, credentials.ErrPasswordTooShort):
		// Signup validation, not authentication; the caller supplied the
		// password and gets told why it was refused.
		c.JSON(http.StatusBadRequest, gin.H{"error": "password too short"})
	case errors.Is(err, auth.ErrAccountConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
	case errors.Is(err, user.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	default:
		logger.Error("request failed", map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

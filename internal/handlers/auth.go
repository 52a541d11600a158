package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/service"
)

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h HandlerSet) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendAuthResponse(c, result)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.sendAuthResponse(c, result)
}

// sendAuthResponse returns {user, token} and sets the refresh cookie. The
// access token is the only credential the client persists.
func (h HandlerSet) sendAuthResponse(c *gin.Context, result service.AuthResult) {
	h.setRefreshCookie(c, result.RefreshToken)

	c.JSON(http.StatusOK, gin.H{
		"user":  toUserResponse(result.User),
		"token": result.AccessToken,
	})
}

func (h HandlerSet) setRefreshCookie(c *gin.Context, token string) {
	maxAge := 0
	if token != "" {
		maxAge = int(h.auth.RefreshTTL().Seconds())
	} else {
		maxAge = -1
	}
	c.SetCookie(
		h.cfg.Security.RefreshCookie,
		token,
		maxAge,
		"/api/auth",
		"",
		h.cfg.Environment == "production",
		true,
	)
}

func (h HandlerSet) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.cfg.Security.RefreshCookie)
	if err != nil || refreshToken == "" {
		h.fail(c, apierr.Unauthenticated("missing refresh token"))
		return
	}

	accessToken, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		// Refresh failures surface as 401 so the client treats them as
		// terminal, not as a role mismatch.
		if apierr.IsKind(err, apierr.KindUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": accessToken})
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), user.ID); err != nil {
		h.log.Warn().Err(err).Str("user_id", user.ID).Msg("logout revocation failed")
	}
	h.setRefreshCookie(c, "")

	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Profile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := updates["email"]; ok {
		h.fail(c, apierr.InvalidArgument("email cannot be changed"))
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, updates)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(updated))
}

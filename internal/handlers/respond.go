package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kidotrendz/storefront/internal/apierr"
	"kidotrendz/storefront/internal/models"
)

// fail translates taxonomy errors to their wire status; anything untagged
// is a 500 with a generic message.
func (h HandlerSet) fail(c *gin.Context, err error) {
	status := apierr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("handler error")
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get("current_user")
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

type userResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Phone        string `json:"phone,omitempty"`
	Address      string `json:"address,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

func toUserResponse(user models.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         string(user.Role),
		Phone:        user.Phone,
		Address:      user.Address,
		ProfilePhoto: user.ProfilePhoto,
	}
}

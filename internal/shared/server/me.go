package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/server/respond"
)

type meResponse struct {
	UserID   string `json:"userId"`
	Provider string `json:"provider"`
	Guest    bool   `json:"guest"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Picture  string `json:"picture,omitempty"`
}

// registerMeRoutes attaches the /me endpoint.
func registerMeRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", meHandler)
}

// meHandler reports who the caller is. User ids are "<provider>:<subject>".
func meHandler(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
		return
	}

	provider, _, found := strings.Cut(userID, ":")
	if !found {
		provider = ""
	}
	respond.OK(c, meResponse{
		UserID:   userID,
		Provider: provider,
		Guest:    provider == "guest",
		Email:    middleware.UserEmailFromContext(c),
		Name:     middleware.UserNameFromContext(c),
		Picture:  middleware.UserPictureFromContext(c),
	})
}

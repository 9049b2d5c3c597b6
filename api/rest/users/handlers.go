package users

import (
	"net/http"

	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/errors"
	"github.com/gin-gonic/gin"
)

// GetProfile godoc
// @Summary Get the user's profile
// @Description Returns the authenticated user's profile without credentials
// @Tags users
// @Produce json
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/users/me [get]
// @Security BearerAuth
func GetProfile(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		user, err := svc.Profile(c.Request.Context(), userID)
		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, ProfileResponse{User: user})
	}
}

// UpdateProfile godoc
// @Summary Update the user's profile
// @Description Updates the display name and avatar. An empty avatar clears it.
// @Tags users
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile update"
// @Success 200 {object} ProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/users/me [put]
// @Security BearerAuth
func UpdateProfile(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			errors.Unauthorized(c, "user not authenticated")
			return
		}

		var req UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		user, err := svc.UpdateProfile(c.Request.Context(), userID, sessions.ProfileUpdate{
			Name:   req.Name,
			Avatar: req.Avatar,
		})

		if err != nil {
			errors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, ProfileResponse{User: user})
	}
}

package auth

import (
	"errors"
	"io"
	"net/http"

	"codeberg.org/gatekeep/server/gatekeep/identity"
	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/gatekeep/users"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/common"
	apierrors "codeberg.org/gatekeep/server/internal/errors"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// seams over gothic so the OAuth handshake can be replaced in tests
var (
	beginUserAuth    = gothic.BeginAuthHandler
	completeUserAuth = gothic.CompleteUserAuth
)

// RegisterHandler godoc
// @Summary Register with email and password
// @Description Creates a local account and returns an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account data"
// @Success 201 {object} tokens.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/auth/register [post]
func RegisterHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest

		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationError(c, err)
			return
		}

		pair, err := svc.Register(c.Request.Context(), sessions.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})

		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusCreated, pair)
	}
}

// LoginHandler godoc
// @Summary Login with email and password
// @Description Returns an access/refresh token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} tokens.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/login [post]
func LoginHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest

		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationError(c, err)
			return
		}

		pair, err := svc.LoginWithPassword(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, pair)
	}
}

// RefreshHandler godoc
// @Summary Refresh tokens
// @Description Consumes a refresh token and returns a new pair. A refresh token works once.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} tokens.TokenPair
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/refresh [post]
func RefreshHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RefreshRequest

		if err := c.ShouldBindJSON(&req); err != nil {
			apierrors.ValidationError(c, err)
			return
		}

		pair, err := svc.Refresh(c.Request.Context(), req.RefreshToken)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, pair)
	}
}

// LogoutHandler godoc
// @Summary Logout
// @Description Revokes the given refresh token, or every session of the user when none is given
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LogoutRequest false "Refresh token of this device"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/logout [post]
// @Security BearerAuth
func LogoutHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		var req LogoutRequest

		// body is optional
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			apierrors.ValidationError(c, err)
			return
		}

		if err := svc.Logout(c.Request.Context(), userID, req.RefreshToken); err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
	}
}

// LogoutAllHandler godoc
// @Summary Logout from all devices
// @Description Revokes every refresh token of the authenticated user
// @Tags auth
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/logout-all [post]
// @Security BearerAuth
func LogoutAllHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		if err := svc.LogoutAll(c.Request.Context(), userID); err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "logged out from all devices"})
	}
}

// BeginAuthHandler godoc
// @Summary Start Google OAuth
// @Description Redirects to Google to begin the OAuth handshake
// @Tags auth
// @Success 307 {string} string "Redirect to OAuth provider"
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/auth/google [get]
func BeginAuthHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.ProviderEnabled() {
			apierrors.Respond(c, common.ErrProviderUnavailable)
			return
		}

		setProvider(c)
		beginUserAuth(c.Writer, c.Request)
	}
}

// CallbackHandler godoc
// @Summary Google OAuth callback
// @Description Completes the OAuth handshake and returns an access/refresh token pair
// @Tags auth
// @Produce json
// @Success 200 {object} tokens.TokenPair
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /api/v1/auth/google/callback [get]
func CallbackHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !svc.ProviderEnabled() {
			apierrors.Respond(c, common.ErrProviderUnavailable)
			return
		}

		setProvider(c)

		gothUser, err := completeUserAuth(c.Writer, c.Request)
		if err != nil {
			apierrors.Unauthorized(c, "oauth authentication failed")
			return
		}

		pair, err := svc.LoginWithProvider(c.Request.Context(), profileFromGoth(gothUser))
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, pair)
	}
}

// GetCurrentUserHandler godoc
// @Summary Get current user
// @Description Get authenticated user's profile
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /api/v1/auth/me [get]
// @Security BearerAuth
func GetCurrentUserHandler(svc *sessions.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := auth.GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			return
		}

		user, err := svc.Profile(c.Request.Context(), userID)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}

		c.JSON(http.StatusOK, UserResponse{User: user})
	}
}

// gothic reads the provider name from the query string
func setProvider(c *gin.Context) {
	q := c.Request.URL.Query()
	q.Set("provider", auth.ProviderGoogle)
	c.Request.URL.RawQuery = q.Encode()
}

func profileFromGoth(u goth.User) identity.Profile {
	name := u.Name
	if name == "" {
		name = u.NickName
	}

	return identity.Profile{
		Provider:          users.ProviderGoogle,
		ProviderSubjectID: u.UserID,
		Email:             u.Email,
		DisplayName:       name,
		AvatarURL:         u.AvatarURL,
	}
}

package users

import "codeberg.org/gatekeep/server/gatekeep/users"

// UpdateProfileRequest for updating display metadata; omitted fields are unchanged
type UpdateProfileRequest struct {
	Name   *string `json:"name" binding:"omitempty,min=1,max=100"`
	Avatar *string `json:"avatar" binding:"omitempty,max=500"`
}

// ProfileResponse wraps user data
type ProfileResponse struct {
	User *users.Projection `json:"user"`
}

package api

// Request DTOs

// ProfileRequest is the onboarding and edit-profile form.
type ProfileRequest struct {
	ProfilePhoto string `json:"profile_photo" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Username     string `json:"username" validate:"required"`
	Bio          string `json:"bio" validate:"required"`
}

// Response DTOs

// UploadResponse is returned by the upload endpoint.
type UploadResponse struct {
	Url string `json:"url"`
}

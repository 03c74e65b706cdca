package dto

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	FirstName string `json:"first_name" form:"first_name" validate:"required,min=1,max=64"`
	LastName  string `json:"last_name" form:"last_name" validate:"required,min=1,max=64"`
	Email     string `json:"email" form:"email" validate:"required,email"`
}

// RegisterResponse reports the stored identity after registration.
type RegisterResponse struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
}

// DirectoryEntryResponse is one searchable user in the global directory.
type DirectoryEntryResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProfilePictureResponse carries the resolved download URL for a profile picture.
type ProfilePictureResponse struct {
	URL string `json:"url"`
}

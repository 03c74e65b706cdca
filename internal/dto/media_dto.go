package dto

// MediaUploadResponse carries the stored asset URL for a photo or video message.
type MediaUploadResponse struct {
	URL string `json:"url"`
}

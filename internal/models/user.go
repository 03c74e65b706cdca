package models

// User is the record stored at the user's storage-safe key.
type User struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns the display name used in directory entries and summaries.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// DirectoryEntry is one element of the global user directory list. Email holds the
// storage-safe key, not the raw address. The directory is append-only and may carry
// duplicate entries for the same user.
type DirectoryEntry struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

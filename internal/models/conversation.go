package models

// LatestMessage is the denormalized snapshot of the newest message in a conversation,
// cached on the summary so list rendering never scans the thread.
type LatestMessage struct {
	Date    string `json:"date"`
	Message string `json:"message"`
	IsRead  bool   `json:"is_read"`
}

// ConversationSummary is one entry of a user's conversation list. The same
// conversation id appears mirrored in both participants' lists, each side's
// OtherUserEmail pointing at the counterpart.
type ConversationSummary struct {
	ID             string        `json:"id"`
	OtherUserEmail string        `json:"other_user_email"`
	Name           string        `json:"name"`
	LatestMessage  LatestMessage `json:"latest_message"`
}

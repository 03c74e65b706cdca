// Package identity derives the storage-safe keys and identifiers the document store
// layout is built around.
package identity

import (
	"fmt"
	"strings"
	"time"
)

var (
	emailReplacer = strings.NewReplacer(".", "_", "@", "_")
	dateReplacer  = strings.NewReplacer(":", "-", ".", "-")
)

// SafeEmail maps an email-shaped identifier to a storage-safe key by substituting
// the characters the store's path syntax disallows. Deterministic and total.
// Pre-existing underscores are not escaped, so "a.b@c" and "a_b@c" collide; accepted.
func SafeEmail(raw string) string {
	return emailReplacer.Replace(raw)
}

// ProfilePictureFileName returns the blob file name for a user's profile picture.
func ProfilePictureFileName(safeEmail string) string {
	return fmt.Sprintf("%s_profile_picture.png", safeEmail)
}

// NewMessageID builds a client-side message identifier from both participants and the
// send time. Intended unique per outgoing message; collisions are not verified.
func NewMessageID(otherUserEmail, currentSafeEmail string, at time.Time) string {
	stamp := dateReplacer.Replace(at.UTC().Format(time.RFC3339))
	return fmt.Sprintf("%s_%s_%s", SafeEmail(otherUserEmail), currentSafeEmail, stamp)
}

// ConversationID derives the immutable conversation identifier from the id of the
// first message, joining the two summary mirrors and the thread.
func ConversationID(messageID string) string {
	return "conversation_" + messageID
}

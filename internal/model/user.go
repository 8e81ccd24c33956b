// Package model defines the data structures used throughout the application.
//
// Every record except User carries a UserID: the owner. The repository layer
// filters every read on it, so a record is only ever visible to its owner.
package model

import "time"

// User is the executive who owns every other record.
//
// WHY PasswordHash HAS json:"-":
// The struct is returned as-is from /api/profile/me and attached to the
// request context by the auth middleware. The tag guarantees the bcrypt hash
// can never be serialised into a response, whatever handler touches it.
type User struct {
	ID           string        `json:"id"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"-"`
	Name         string        `json:"name"`
	EAEmail      string        `json:"eaEmail,omitempty"` // executive assistant; receives action items and follow-up requests
	WritingStyle string        `json:"writingStyle,omitempty"`
	BookExcerpts []BookExcerpt `json:"bookExcerpts"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// BookExcerpt is a passage the executive likes to share with people.
type BookExcerpt struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

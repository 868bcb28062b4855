// Package models holds the backend-side persistence models. Annotation
// payloads are shared with the client (see internal/models); only identities
// live here.
package models

import "time"

// User is one account. PasswordHash is a bcrypt hash and never leaves the
// server.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

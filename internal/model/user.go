// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// SANITIZATION VIA json:"-":
// The Password and RefreshToken fields carry the `json:"-"` tag, which tells
// encoding/json to NEVER serialize them. Even if a handler accidentally
// encodes a full User, the password digest and the live refresh token cannot
// leak into a response body. The repository additionally offers sanitized
// reads (GetSanitizedByID) that don't SELECT those columns at all, so the
// values never even enter process memory on read-only paths.
//
// WHY Password HOLDS A DIGEST, NOT A PASSWORD:
// The field stores the bcrypt digest produced by auth.PasswordService.Hash.
// The plaintext is hashed in the service layer before the model is ever
// handed to the repository — nothing below the service layer sees plaintext.
//
// WHY RefreshToken IS A SINGLE STRING (not a session table)?
// This app supports one live session per user. The refresh token issued at
// login is stored here; refresh rotates it, logout clears it. A presented
// refresh token is only honoured while it equals this stored value — that
// equality check is the sole revocation mechanism.
type User struct {
	ID           string    `json:"id"         db:"id"`
	Username     string    `json:"username"   db:"username"`   // unique, lowercase, trimmed
	Email        string    `json:"email"      db:"email"`      // unique, lowercase, trimmed
	FullName     string    `json:"fullName"   db:"full_name"`
	Avatar       string    `json:"avatar"     db:"avatar"`     // hosted image URI, always present
	CoverImage   string    `json:"coverImage" db:"cover_image"` // hosted image URI, may be empty
	Password     string    `json:"-"          db:"password"`      // bcrypt digest
	RefreshToken string    `json:"-"          db:"refresh_token"` // current refresh token, empty when logged out
	CreatedAt    time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"  db:"updated_at"`
}

// Package repository defines the persistence interfaces the service layer
// depends on.
//
// PROGRAMMING TO AN INTERFACE:
// The service layer receives a UserRepository, never a concrete *sqlite.DB.
// Tests pass an in-memory fake; main wires the sqlite implementation; a
// Postgres or Mongo implementation could be swapped in by changing one line
// in the composition root.
package repository

import (
	"context"

	"github.com/rlbk/nodejs-backend/internal/model"
)

// UserRepository is the persistence collaborator for user records.
//
// FIELD-LEVEL UPDATES, NOT A GENERAL SAVE:
// The Update* methods each write exactly one field (plus updated_at).
// There is deliberately no "save the whole record" method — updating the
// refresh token must not re-validate or rewrite unrelated fields, and a
// narrow contract makes that impossible to get wrong. Each update is a
// single-row atomic statement, so concurrent writers for the same user
// resolve by last-writer-wins.
type UserRepository interface {
	// Create inserts a new user. The implementation assigns ID, CreatedAt
	// and UpdatedAt on the passed record. Returns an error wrapping
	// apperror.ErrConflict when the username or email is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByID returns the full user record, digest and refresh token
	// included. Returns an error wrapping apperror.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*model.User, error)

	// GetSanitizedByID returns the user with the password digest and
	// refresh token excluded from the query itself — the returned record
	// has empty Password and RefreshToken fields.
	GetSanitizedByID(ctx context.Context, id string) (*model.User, error)

	// GetByUsernameOrEmail returns the first user matching either value.
	// Either argument may be empty. Returns an error wrapping
	// apperror.ErrNotFound when no user matches.
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)

	// UpdateRefreshToken sets the stored refresh token for the user.
	// An empty token clears it (stored as NULL). Idempotent.
	UpdateRefreshToken(ctx context.Context, id, token string) error

	// UpdatePassword replaces the stored password digest.
	UpdatePassword(ctx context.Context, id, digest string) error

	// UpdateAvatar replaces the avatar URI.
	UpdateAvatar(ctx context.Context, id, url string) error

	// UpdateCoverImage replaces the cover image URI.
	UpdateCoverImage(ctx context.Context, id, url string) error
}

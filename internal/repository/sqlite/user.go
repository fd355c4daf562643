package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/rlbk/nodejs-backend/internal/apperror"
	"github.com/rlbk/nodejs-backend/internal/model"
	"github.com/rlbk/nodejs-backend/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user record.
//
// ID and timestamps are assigned here (repository concern, not service
// concern). Duplicate username/email surfaces as apperror.ErrConflict —
// the UNIQUE constraints are the authoritative check, so two concurrent
// registrations for the same name race safely: exactly one INSERT wins and
// the other gets the constraint error.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	var refreshToken any // NULL when empty
	if user.RefreshToken != "" {
		refreshToken = user.RefreshToken
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, username, email, full_name, avatar, cover_image, password, refresh_token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.Avatar,
		user.CoverImage,
		user.Password,
		refreshToken,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user with email or username already exists")
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves the full user record, digest and refresh token included.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, cover_image, password, refresh_token, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	)
	return scanUser(row, id)
}

// GetSanitizedByID retrieves a user WITHOUT selecting the password digest or
// the refresh token — the sensitive columns never leave the database on this
// path (the "-password -refreshToken" projection).
func (db *DB) GetSanitizedByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, cover_image, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Avatar,
		&u.CoverImage,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetByUsernameOrEmail returns the first user matching either value. Either
// argument may be empty — an empty string matches nothing because usernames
// and emails are non-empty by construction.
func (db *DB) GetByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, cover_image, password, refresh_token, created_at, updated_at
		 FROM users WHERE (username = ? AND ? != '') OR (email = ? AND ? != '')`,
		username, username, email, email,
	)
	return scanUser(row, username+email)
}

// UpdateRefreshToken sets (or clears, with "") the stored refresh token.
//
// This is the narrow replacement for a general "save without validation":
// exactly one field changes, in one atomic UPDATE, with no reads of the rest
// of the record. Concurrent logins for the same user both succeed and the
// last writer's token is the one that stays live.
func (db *DB) UpdateRefreshToken(ctx context.Context, id, token string) error {
	var value any // NULL clears the session
	if token != "" {
		value = token
	}
	return db.updateField(ctx, id, "refresh_token", value)
}

// UpdatePassword replaces the stored password digest. The caller hashes;
// this method never sees plaintext.
func (db *DB) UpdatePassword(ctx context.Context, id, digest string) error {
	return db.updateField(ctx, id, "password", digest)
}

// UpdateAvatar replaces the avatar URI.
func (db *DB) UpdateAvatar(ctx context.Context, id, url string) error {
	return db.updateField(ctx, id, "avatar", url)
}

// UpdateCoverImage replaces the cover image URI.
func (db *DB) UpdateCoverImage(ctx context.Context, id, url string) error {
	return db.updateField(ctx, id, "cover_image", url)
}

// updateField writes a single column (plus updated_at) on one user row.
// The column name comes only from the methods above, never from input.
func (db *DB) updateField(ctx context.Context, id, column string, value any) error {
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s = ?, updated_at = ? WHERE id = ?`, column),
		value, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating %s for user %s: %w", column, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking update result for user %s: %w", id, err)
	}
	if affected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// scanUser reads a full user row, mapping sql.ErrNoRows to ErrNotFound and
// a NULL refresh_token to the empty string.
func scanUser(row *sql.Row, key string) (*model.User, error) {
	var (
		u            model.User
		refreshToken sql.NullString
	)

	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FullName,
		&u.Avatar,
		&u.CoverImage,
		&u.Password,
		&refreshToken,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", key, err)
	}

	u.RefreshToken = refreshToken.String
	return &u, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite surfaces these as plain errors whose message contains
// the SQLite constraint text, so string matching is the available signal.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

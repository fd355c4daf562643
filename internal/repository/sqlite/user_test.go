package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/rlbk/nodejs-backend/internal/apperror"
	"github.com/rlbk/nodejs-backend/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database. Each test
// gets a fresh, isolated database that disappears when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser inserts a user and fails the test on error.
func createTestUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()
	user := &model.User{
		Username: username,
		Email:    email,
		FullName: "Test User",
		Avatar:   "http://media.example/avatar.png",
		Password: "$2a$04$fakedigestfakedigestfakedigestfakedigest",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Username: "alice",
		Email:    "alice@example.com",
		FullName: "Alice A",
		Avatar:   "http://media.example/a.png",
		Password: "digest",
	}

	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Create assigns ID and timestamps in-place (pointer receiver).
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	dup := &model.User{
		Username: "alice", // same username, different email
		Email:    "other@example.com",
		FullName: "Other",
		Avatar:   "http://media.example/o.png",
		Password: "digest",
	}
	err := db.Create(context.Background(), dup)
	if err == nil {
		t.Fatal("Create() should fail for a duplicate username")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

func TestCreate_DuplicateUsernameCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	// "Alice" and "alice" must collide: the COLLATE NOCASE constraint is
	// the backstop even when a caller forgets to lowercase.
	dup := &model.User{
		Username: "Alice",
		Email:    "upper@example.com",
		FullName: "Upper",
		Avatar:   "http://media.example/u.png",
		Password: "digest",
	}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict for case-insensitive duplicate", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	dup := &model.User{
		Username: "bob",
		Email:    "alice@example.com", // same email
		FullName: "Bob",
		Avatar:   "http://media.example/b.png",
		Password: "digest",
	}
	err := db.Create(context.Background(), dup)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict for duplicate email", err)
	}
}

// =========================================================================
// LOOKUP TESTS
// =========================================================================

func TestGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	found, err := db.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Username != "alice" || found.Email != "alice@example.com" {
		t.Errorf("GetByID() = %q/%q, want alice/alice@example.com", found.Username, found.Email)
	}
	if found.Password == "" {
		t.Error("GetByID() must return the full record, digest included")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestGetSanitizedByID_ExcludesSecrets(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.UpdateRefreshToken(context.Background(), created.ID, "live-refresh-token"); err != nil {
		t.Fatalf("UpdateRefreshToken() error = %v", err)
	}

	found, err := db.GetSanitizedByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetSanitizedByID() error = %v", err)
	}
	if found.Password != "" {
		t.Error("GetSanitizedByID() returned the password digest")
	}
	if found.RefreshToken != "" {
		t.Error("GetSanitizedByID() returned the refresh token")
	}
	if found.Username != "alice" || found.Avatar == "" {
		t.Error("GetSanitizedByID() should still return the public fields")
	}
}

func TestGetByUsernameOrEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice", "alice@example.com")

	byUsername, err := db.GetByUsernameOrEmail(context.Background(), "alice", "")
	if err != nil {
		t.Fatalf("GetByUsernameOrEmail(username) error = %v", err)
	}
	if byUsername.ID != created.ID {
		t.Errorf("lookup by username returned %q, want %q", byUsername.ID, created.ID)
	}

	byEmail, err := db.GetByUsernameOrEmail(context.Background(), "", "alice@example.com")
	if err != nil {
		t.Fatalf("GetByUsernameOrEmail(email) error = %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("lookup by email returned %q, want %q", byEmail.ID, created.ID)
	}
}

func TestGetByUsernameOrEmail_EmptyArgsMatchNothing(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "alice", "alice@example.com")

	_, err := db.GetByUsernameOrEmail(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByUsernameOrEmail(\"\",\"\") error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// FIELD-LEVEL UPDATE TESTS
// =========================================================================

func TestUpdateRefreshToken_SetRotateClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestUser(t, db, "alice", "alice@example.com")

	// set
	if err := db.UpdateRefreshToken(ctx, created.ID, "token-one"); err != nil {
		t.Fatalf("UpdateRefreshToken(set) error = %v", err)
	}
	u, _ := db.GetByID(ctx, created.ID)
	if u.RefreshToken != "token-one" {
		t.Errorf("stored token = %q, want token-one", u.RefreshToken)
	}

	// rotate
	if err := db.UpdateRefreshToken(ctx, created.ID, "token-two"); err != nil {
		t.Fatalf("UpdateRefreshToken(rotate) error = %v", err)
	}
	u, _ = db.GetByID(ctx, created.ID)
	if u.RefreshToken != "token-two" {
		t.Errorf("stored token = %q, want token-two after rotation", u.RefreshToken)
	}

	// clear — and clearing twice is fine (idempotent upsert)
	if err := db.UpdateRefreshToken(ctx, created.ID, ""); err != nil {
		t.Fatalf("UpdateRefreshToken(clear) error = %v", err)
	}
	if err := db.UpdateRefreshToken(ctx, created.ID, ""); err != nil {
		t.Fatalf("UpdateRefreshToken(clear again) error = %v", err)
	}
	u, _ = db.GetByID(ctx, created.ID)
	if u.RefreshToken != "" {
		t.Errorf("stored token = %q, want empty after clear", u.RefreshToken)
	}
}

func TestUpdateRefreshToken_LeavesOtherFieldsAlone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.UpdateRefreshToken(ctx, created.ID, "token"); err != nil {
		t.Fatalf("UpdateRefreshToken() error = %v", err)
	}

	u, _ := db.GetByID(ctx, created.ID)
	if u.Password != created.Password || u.Avatar != created.Avatar || u.Username != created.Username {
		t.Error("UpdateRefreshToken() must not touch unrelated fields")
	}
}

func TestUpdateRefreshToken_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateRefreshToken(context.Background(), "ghost", "token")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateRefreshToken(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestUpdatePassword(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.UpdatePassword(ctx, created.ID, "new-digest"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	u, _ := db.GetByID(ctx, created.ID)
	if u.Password != "new-digest" {
		t.Errorf("stored digest = %q, want new-digest", u.Password)
	}
}

func TestUpdateAvatarAndCoverImage(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	created := createTestUser(t, db, "alice", "alice@example.com")

	if err := db.UpdateAvatar(ctx, created.ID, "http://media.example/new-avatar.png"); err != nil {
		t.Fatalf("UpdateAvatar() error = %v", err)
	}
	if err := db.UpdateCoverImage(ctx, created.ID, "http://media.example/cover.png"); err != nil {
		t.Fatalf("UpdateCoverImage() error = %v", err)
	}

	u, _ := db.GetByID(ctx, created.ID)
	if u.Avatar != "http://media.example/new-avatar.png" {
		t.Errorf("avatar = %q, want the new URI", u.Avatar)
	}
	if u.CoverImage != "http://media.example/cover.png" {
		t.Errorf("cover image = %q, want the new URI", u.CoverImage)
	}
}

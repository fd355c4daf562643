// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses, sets cookies
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the user store
//
// UserService is the session lifecycle orchestrator: registration, login,
// logout, token refresh, password change, and avatar/cover updates are each
// a short per-request flow with early-exit failure points. There is no
// persistent state machine — all durable state lives on the user record.
//
// Every failure is returned as an apperror value; nothing here knows about
// HTTP. The handler layer translates errors into the response envelope at
// one boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/rlbk/nodejs-backend/internal/apperror"
	"github.com/rlbk/nodejs-backend/internal/auth"
	"github.com/rlbk/nodejs-backend/internal/model"
	"github.com/rlbk/nodejs-backend/internal/repository"
)

// Uploader is the media host collaborator: give it a local file path, get
// back a hosted URI. The temp file is the uploader's to delete, success or
// failure. Defined here (where it is consumed) so tests can substitute a
// fake without touching the minio-backed implementation.
type Uploader interface {
	UploadFile(ctx context.Context, localPath string) (string, error)
}

// UserService orchestrates the auth/session lifecycle.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	media     Uploader
	logger    *slog.Logger
}

// NewUserService creates a UserService with all dependencies injected.
// The composition root (internal/server) decides the concrete types.
func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	media Uploader,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		media:     media,
		logger:    logger,
	}
}

// RegisterInput carries everything the register flow needs. AvatarPath and
// CoverImagePath are LOCAL temp file paths written by the upload helper;
// CoverImagePath may be empty (the cover image is optional).
type RegisterInput struct {
	FullName       string
	Username       string
	Email          string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput carries login credentials. At least one of Username/Email must
// be set.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair bundles a freshly issued access + refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by Login: the sanitized user plus both tokens, so
// the handler can set cookies and echo the tokens in the body in one step.
type LoginResult struct {
	User   *model.User
	Tokens TokenPair
}

// Register creates a new user account.
//
// FLOW (early-exit on each failure):
//  1. all four identity fields non-empty after trimming  → 400 otherwise
//  2. username/email not already taken                   → 409 otherwise
//  3. a primary (avatar) image was uploaded              → 400 otherwise
//  4. upload avatar (required) and cover image (optional) to the media host
//  5. hash the password, create the record
//  6. re-fetch the sanitized record                      → 500 on a miss
//
// The re-fetch looks redundant — we just created the row — but it is the
// defensive consistency check the flow ends on: if the store claims success
// and then can't find the record, something is badly wrong and the client
// must not receive a 201.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	// Whatever happens below, no temp file outlives this request. The media
	// client removes a file it attempts to upload; these removes cover the
	// early exits where an upload never starts. Removing an already-removed
	// file is a no-op.
	defer func() {
		if in.AvatarPath != "" {
			os.Remove(in.AvatarPath)
		}
		if in.CoverImagePath != "" {
			os.Remove(in.CoverImagePath)
		}
	}()

	fullName := strings.TrimSpace(in.FullName)
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if fullName == "" || username == "" || email == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperror.BadRequest("all fields are required")
	}

	// Pre-check for a friendly 409. The database UNIQUE constraints remain
	// the authoritative gate for the race where two registrations with the
	// same name arrive at once.
	if _, err := s.users.GetByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, apperror.Conflict("user with email or username already exists")
	}

	if in.AvatarPath == "" {
		return nil, apperror.BadRequest("avatar image is required")
	}

	avatarURL, err := s.media.UploadFile(ctx, in.AvatarPath)
	if err != nil || avatarURL == "" {
		s.logger.Error("avatar upload failed", slog.String("username", username), slog.Any("error", err))
		return nil, apperror.Internal("avatar upload failed")
	}

	var coverURL string
	if in.CoverImagePath != "" {
		coverURL, err = s.media.UploadFile(ctx, in.CoverImagePath)
		if err != nil {
			// The cover image is optional on input but once the client sent
			// one, silently dropping it would be lying about what we stored.
			s.logger.Error("cover image upload failed", slog.String("username", username), slog.Any("error", err))
			return nil, apperror.Internal("cover image upload failed")
		}
	}

	// The password is hashed exactly as submitted — whitespace is part of
	// the password. Login and ChangePassword verify the raw string, so any
	// normalization here would break the round trip.
	digest, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}

	user := &model.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   digest,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	created, err := s.users.GetSanitizedByID(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("something went wrong while registering the user")
	}

	s.logger.Info("user registered",
		slog.String("userID", created.ID),
		slog.String("username", created.Username),
	)

	return created, nil
}

// Login authenticates a user by username or email plus password, issues an
// access/refresh token pair, and persists the refresh token as the user's
// single live session.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" && email == "" {
		return nil, apperror.BadRequest("username or email is required")
	}
	if in.Password == "" {
		return nil, apperror.BadRequest("password is required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		// Only a genuine miss becomes a 404 — a store failure is not "user
		// not found" and must keep its own kind.
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	if err := s.passwords.Verify(user.Password, in.Password); err != nil {
		return nil, apperror.Unauthorized("invalid user credentials")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	loggedIn, err := s.users.GetSanitizedByID(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal("something went wrong while logging in")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &LoginResult{User: loggedIn, Tokens: pair}, nil
}

// Logout clears the stored refresh token, ending the user's session.
// The handler clears the cookies; this method only touches durable state.
// Must run behind the auth guard — userID comes from a verified token.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateRefreshToken(ctx, userID, ""); err != nil {
		return err
	}
	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// Refresh exchanges a valid, LIVE refresh token for a new token pair,
// rotating the stored refresh token in the process.
//
// THE ROTATION GATE:
// After signature and expiry pass, the presented token must equal the one
// stored on the user record. Any mismatch — an old token after a rotation,
// a token after logout, a replay from a stolen cookie — fails with 401.
// That single equality check is the app's entire revocation mechanism.
func (s *UserService) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	if presented == "" {
		return TokenPair{}, apperror.Unauthorized("unauthorized request")
	}

	userID, _, err := s.tokens.ValidateRefreshToken(presented)
	if err != nil {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, apperror.Unauthorized("invalid refresh token")
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return TokenPair{}, apperror.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.Info("tokens refreshed", slog.String("userID", user.ID))

	return pair, nil
}

// ChangePassword re-digests and stores a new password after verifying the
// old one.
//
// Existing sessions stay valid: the refresh token is deliberately NOT
// rotated here. A user changing their password is not evicted from their
// own session.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.passwords.Verify(user.Password, oldPassword); err != nil {
		return apperror.BadRequest("invalid old password")
	}

	if strings.TrimSpace(newPassword) == "" {
		return apperror.BadRequest("new password is required")
	}

	digest, err := s.passwords.Hash(newPassword)
	if err != nil {
		return apperror.BadRequest(err.Error())
	}

	if err := s.users.UpdatePassword(ctx, userID, digest); err != nil {
		return err
	}

	s.logger.Info("password changed", slog.String("userID", userID))
	return nil
}

// UpdateAvatar uploads a new avatar image and stores its hosted URI.
func (s *UserService) UpdateAvatar(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.updateImage(ctx, userID, localPath, "avatar", s.users.UpdateAvatar)
}

// UpdateCoverImage uploads a new cover image and stores its hosted URI.
func (s *UserService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*model.User, error) {
	return s.updateImage(ctx, userID, localPath, "cover image", s.users.UpdateCoverImage)
}

// CurrentUser returns the sanitized record for the authenticated user.
func (s *UserService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetSanitizedByID(ctx, userID)
}

// updateImage is the shared avatar/cover flow: upload, require a URI,
// persist the single field, return the fresh sanitized record.
func (s *UserService) updateImage(
	ctx context.Context,
	userID, localPath, kind string,
	persist func(ctx context.Context, id, url string) error,
) (*model.User, error) {
	if localPath == "" {
		return nil, apperror.BadRequest(fmt.Sprintf("%s file is required", kind))
	}

	url, err := s.media.UploadFile(ctx, localPath)
	if err != nil || url == "" {
		s.logger.Error("image upload failed",
			slog.String("userID", userID),
			slog.String("kind", kind),
			slog.Any("error", err),
		)
		return nil, apperror.Internal(fmt.Sprintf("error while uploading %s", kind))
	}

	if err := persist(ctx, userID, url); err != nil {
		return nil, err
	}

	return s.users.GetSanitizedByID(ctx, userID)
}

// issueTokenPair mints both tokens and persists the refresh token on the
// user record (the field-level update — nothing else on the record is
// touched or re-validated). Any failure here is an Internal error: the
// credentials were already verified, so the user did nothing wrong.
func (s *UserService) issueTokenPair(ctx context.Context, user *model.User) (TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating access and refresh token")
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating access and refresh token")
	}

	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return TokenPair{}, apperror.Internal("something went wrong while generating access and refresh token")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

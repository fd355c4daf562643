// Package handler contains the HTTP adapters for the user API.
//
// HANDLERS ONLY SPEAK HTTP:
// Each handler parses the request (JSON body or multipart form), calls one
// UserService method, and writes the envelope. Business rules, hashing,
// token issuance and persistence all live below this layer — a handler
// never touches the repository or the token service directly.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/rlbk/nodejs-backend/internal/apperror"
	"github.com/rlbk/nodejs-backend/internal/auth"
	"github.com/rlbk/nodejs-backend/internal/model"
	"github.com/rlbk/nodejs-backend/internal/service"
	"github.com/rlbk/nodejs-backend/internal/upload"
)

// UserHandler exposes the session lifecycle over HTTP.
type UserHandler struct {
	users       *service.UserService
	tempDir     string
	maxFileSize int64
	logger      *slog.Logger
}

// NewUserHandler creates a UserHandler. tempDir and maxFileSize govern
// multipart uploads (register, avatar, cover image).
func NewUserHandler(users *service.UserService, tempDir string, maxFileSize int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:       users,
		tempDir:     tempDir,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// HandleRegister creates a new account.
//
// HTTP: POST /api/v1/users/register
// Body: multipart form — fields fullName, username, email, password;
// files "avatar" (required) and "coverImage" (optional).
//
// The files are landed in the temp directory first; the service ships them
// to the media host and guarantees the temp files are gone afterwards,
// whether or not registration succeeds.
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, h.logger, apperror.BadRequest("invalid multipart form"))
		return
	}

	avatarPath, err := upload.SaveFile(r, "avatar", h.tempDir)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	coverPath, err := upload.SaveFile(r, "coverImage", h.tempDir)
	if err != nil {
		// The avatar already landed on disk; the service's cleanup never
		// runs on this exit, so the temp file is ours to remove.
		if avatarPath != "" {
			os.Remove(avatarPath)
		}
		respondError(w, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		FullName:       r.FormValue("fullName"),
		Username:       r.FormValue("username"),
		Email:          r.FormValue("email"),
		Password:       r.FormValue("password"),
		AvatarPath:     avatarPath,
		CoverImagePath: coverPath,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusCreated, user, "user registered successfully")
}

// loginRequest is the JSON body for HandleLogin.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates a user and starts a session.
//
// HTTP: POST /api/v1/users/login
//
// Both tokens are set as HttpOnly+Secure cookies AND returned in the body —
// browser clients rely on the cookies, API clients on the body.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.BadRequest("invalid JSON body"))
		return
	}

	result, err := h.users.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	setTokenCookies(w, result.Tokens)

	respond(w, http.StatusOK, map[string]any{
		"user":         result.User,
		"accessToken":  result.Tokens.AccessToken,
		"refreshToken": result.Tokens.RefreshToken,
	}, "user logged in successfully")
}

// HandleLogout ends the session: the stored refresh token is cleared and
// both cookies are expired.
//
// HTTP: POST /api/v1/users/logout — behind RequireAuth.
//
// WHY POST AND NOT GET?
// Logout changes state. A GET would be vulnerable to CSRF and to browsers
// pre-fetching the URL.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, apperror.Unauthorized("unauthorized request"))
		return
	}

	if err := h.users.Logout(r.Context(), user.ID); err != nil {
		respondError(w, h.logger, err)
		return
	}

	clearTokenCookies(w)

	respond(w, http.StatusOK, map[string]any{}, "user logged out successfully")
}

// refreshRequest is the optional JSON body for HandleRefresh; the cookie is
// checked first.
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// HandleRefresh exchanges a live refresh token for a new token pair.
//
// HTTP: POST /api/v1/users/refresh-token
//
// The token comes from the "refreshToken" cookie when present, otherwise
// from the JSON body. The service rotates the stored token — after a 200,
// the previously issued refresh token is dead.
func (h *UserHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(auth.RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		// An empty body is fine here — the missing-token case gets its 401
		// from the service, not from JSON parsing.
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, h.logger, apperror.BadRequest("invalid JSON body"))
			return
		}
		presented = req.RefreshToken
	}

	pair, err := h.users.Refresh(r.Context(), presented)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	setTokenCookies(w, pair)

	respond(w, http.StatusOK, pair, "access token refreshed")
}

// changePasswordRequest is the JSON body for HandleChangePassword.
type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleChangePassword re-digests the password after verifying the old one.
//
// HTTP: POST /api/v1/users/change-password — behind RequireAuth.
// Existing sessions stay valid; no cookies change.
func (h *UserHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, apperror.Unauthorized("unauthorized request"))
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.BadRequest("invalid JSON body"))
		return
	}

	if err := h.users.ChangePassword(r.Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, map[string]any{}, "password changed successfully")
}

// HandleCurrentUser returns the authenticated user's sanitized record.
//
// HTTP: GET /api/v1/users/current-user — behind RequireAuth.
//
// The guard already loaded the sanitized record while resolving the token,
// so this handler just echoes it — no second lookup.
func (h *UserHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, apperror.Unauthorized("unauthorized request"))
		return
	}

	respond(w, http.StatusOK, user, "current user fetched successfully")
}

// HandleUpdateAvatar replaces the user's avatar image.
//
// HTTP: PATCH /api/v1/users/avatar — behind RequireAuth.
// Body: multipart form with file field "avatar".
func (h *UserHandler) HandleUpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "avatar", h.users.UpdateAvatar, "avatar updated successfully")
}

// HandleUpdateCoverImage replaces the user's cover image.
//
// HTTP: PATCH /api/v1/users/cover-image — behind RequireAuth.
// Body: multipart form with file field "coverImage".
func (h *UserHandler) HandleUpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.handleImageUpdate(w, r, "coverImage", h.users.UpdateCoverImage, "cover image updated successfully")
}

// handleImageUpdate is the shared avatar/cover flow: authenticate, land the
// multipart file in the temp dir, hand the path to the service, return the
// refreshed sanitized record.
func (h *UserHandler) handleImageUpdate(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	update func(ctx context.Context, userID, localPath string) (*model.User, error),
	message string,
) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, h.logger, apperror.Unauthorized("unauthorized request"))
		return
	}

	if err := r.ParseMultipartForm(h.maxFileSize); err != nil {
		respondError(w, h.logger, apperror.BadRequest("invalid multipart form"))
		return
	}

	path, err := upload.SaveFile(r, field, h.tempDir)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := update(r.Context(), user.ID, path)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	respond(w, http.StatusOK, updated, message)
}

func setTokenCookies(w http.ResponseWriter, pair service.TokenPair) {
	http.SetCookie(w, tokenCookie(auth.AccessTokenCookie, pair.AccessToken))
	http.SetCookie(w, tokenCookie(auth.RefreshTokenCookie, pair.RefreshToken))
}

// clearTokenCookies expires both auth cookies with the SAME options they
// were set with — browsers match cookies by name+path, so mismatched options
// would leave the originals in place.
func clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{auth.AccessTokenCookie, auth.RefreshTokenCookie} {
		c := tokenCookie(name, "")
		c.MaxAge = -1 // delete immediately
		http.SetCookie(w, c)
	}
}

// tokenCookie builds an auth cookie.
//
// HttpOnly: JavaScript cannot read it — an XSS payload can't exfiltrate the
// token. Secure: only sent over HTTPS. SameSite=Lax: sent on top-level
// navigations but not cross-site POSTs.
func tokenCookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

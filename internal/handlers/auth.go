package handlers

//go:generate go run go.uber.org/mock/mockgen -source=auth.go -destination=../../mocks/mock_mailer.go -package=mocks

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/crypto"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/email"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

const (
	resetTokenTTL      = time.Hour
	resendCooldown     = time.Minute
	invalidCredentials = "Invalid email or password!"
)

// Mailer sends the platform's transactional emails.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, code string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
	SendInterviewInvitation(ctx context.Context, to string, iv email.Interview) error
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name       string             `json:"name" validate:"required,max=100"`
	Email      string             `json:"email" validate:"required,email"`
	Password   string             `json:"password" validate:"required,min=6,max=72"`
	Role       models.Role        `json:"role" validate:"omitempty,oneof=CANDIDATE ENTERPRISE"`
	Enterprise *models.Enterprise `json:"enterprise"`
	Profile    *models.Profile    `json:"profile"`
}

// AuthResponse is returned by every successful sign-in.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates a local account and emails a verification code.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Role == "" {
		req.Role = models.RoleCandidate
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	code, err := crypto.NewVerificationCode()
	if err != nil {
		h.Internal(w, r, err)
		return
	}

	user := &models.User{
		Email:              normalizeEmail(req.Email),
		Name:               sanitizeName(req.Name),
		Role:               req.Role,
		PasswordHash:       hash,
		IsActive:           true,
		VerificationStatus: models.VerificationPending,
		VerificationCode:   code,
	}
	if req.Profile != nil && req.Role == models.RoleCandidate {
		user.Profile = *req.Profile
	}
	if req.Role == models.RoleEnterprise {
		user.Enterprise = req.Enterprise
		if user.Enterprise == nil {
			user.Enterprise = &models.Enterprise{Name: user.Name}
		}
	}

	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.Error(w, http.StatusConflict, "Email already registered")
			return
		}
		h.Internal(w, r, err)
		return
	}
	metrics.UsersRegistered.WithLabelValues(string(user.Role)).Inc()

	if err := h.Mailer.SendVerification(r.Context(), user.Email, user.Name, code); err != nil {
		h.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("verification email failed")
	}

	h.JSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful. Check your email for the verification code.",
		"user":    user,
	})
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login exchanges credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.Error(w, http.StatusUnauthorized, invalidCredentials)
		return
	}
	if !user.EmailVerified {
		h.JSON(w, http.StatusForbidden, map[string]interface{}{
			"message":        "Please verify your email before logging in",
			"email_verified": false,
		})
		return
	}
	if !user.IsActive {
		h.Error(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	h.signIn(w, r, user)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request, user *models.User) {
	now := time.Now().UTC()
	user.LastLogin = &now
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}

	token, err := h.Tokens.Generate(user)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	expiresAt := now.Add(h.Tokens.TTL())

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.JSON(w, http.StatusOK, AuthResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Logout clears the token cookie. Tokens are stateless and stay valid until expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// VerifyEmailRequest represents the verification request body.
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyEmail confirms an address with the emailed code.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if user.EmailVerified {
		h.JSON(w, http.StatusOK, map[string]string{"message": "Email already verified"})
		return
	}
	if user.VerificationCode == "" || user.VerificationCode != req.Code {
		h.Error(w, http.StatusBadRequest, "Invalid verification code")
		return
	}

	user.EmailVerified = true
	user.VerificationCode = ""
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully"})
}

// EmailRequest carries a single address.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendVerification issues a fresh verification code, at most once a minute.
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	addr := normalizeEmail(req.Email)

	user, err := h.Store.GetUserByEmail(r.Context(), addr)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if user.EmailVerified {
		h.Error(w, http.StatusBadRequest, "Email already verified")
		return
	}
	if !h.acquireCooldown(r.Context(), "resend-verification", addr) {
		h.Error(w, http.StatusTooManyRequests, "Please wait before requesting another code")
		return
	}

	code, err := crypto.NewVerificationCode()
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	user.VerificationCode = code
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	if err := h.Mailer.SendVerification(r.Context(), user.Email, user.Name, code); err != nil {
		h.Upstream(w, r, "Failed to send verification email", err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Verification code sent"})
}

// ForgotPassword emails a one-hour reset link.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), normalizeEmail(req.Email))
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	token, err := crypto.NewResetToken()
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	expires := time.Now().UTC().Add(resetTokenTTL)
	user.ResetToken = token
	user.ResetExpiresAt = &expires
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	if err := h.Mailer.SendPasswordReset(r.Context(), user.Email, user.Name, token); err != nil {
		h.Upstream(w, r, "Failed to send reset email", err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Password reset email sent"})
}

// PasswordRequest carries a new password.
type PasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ResetPassword sets a new password using an emailed token.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	token := chi.URLParam(r, "token")
	if token == "" {
		h.Error(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	user, err := h.Store.GetUserByResetToken(r.Context(), token)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil || user.ResetExpiresAt == nil || time.Now().After(*user.ResetExpiresAt) {
		h.Error(w, http.StatusBadRequest, "Invalid or expired token")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	user.PasswordHash = hash
	user.ResetToken = ""
	user.ResetExpiresAt = nil
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Password has been reset"})
}

// GoogleLoginRequest carries the ID token obtained by the frontend.
type GoogleLoginRequest struct {
	Credential string `json:"credential" validate:"required"`
}

// GoogleLogin signs in with a Google ID token, creating a verified candidate
// on first use.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.Google == nil {
		h.Error(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}
	var req GoogleLoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	identity, err := h.Google.Verify(r.Context(), req.Credential)
	if err != nil {
		h.Error(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}

	addr := normalizeEmail(identity.Email)
	user, err := h.Store.GetUserByEmail(r.Context(), addr)
	if err != nil {
		h.Internal(w, r, err)
		return
	}

	if user == nil {
		user = &models.User{
			Email:              addr,
			Name:               sanitizeName(identity.Name),
			Role:               models.RoleCandidate,
			GoogleID:           identity.Subject,
			IsActive:           true,
			EmailVerified:      true,
			VerificationStatus: models.VerificationApproved,
			Picture:            identity.Picture,
		}
		if user.Name == "" {
			user.Name = addr
		}
		if err := h.Store.CreateUser(r.Context(), user); err != nil {
			h.Internal(w, r, err)
			return
		}
		metrics.UsersRegistered.WithLabelValues(string(user.Role)).Inc()
	} else {
		if !user.IsActive {
			h.Error(w, http.StatusForbidden, "Account is deactivated")
			return
		}
		user.GoogleID = identity.Subject
		user.EmailVerified = true
		user.VerificationCode = ""
		if user.Picture == "" {
			user.Picture = identity.Picture
		}
	}

	h.signIn(w, r, user)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUserByID(r.Context(), h.claims(r).UserID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	h.JSON(w, http.StatusOK, user)
}

// ChangePasswordRequest represents the change-password request body.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), h.claims(r).UserID)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		h.Error(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	user.PasswordHash = hash
	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}

// acquireCooldown allows an action when Redis is absent or reports no active cooldown.
func (h *Handler) acquireCooldown(ctx context.Context, action, subject string) bool {
	if h.Redis == nil {
		return true
	}
	ok, err := h.Redis.AcquireCooldown(ctx, action, subject, resendCooldown)
	if err != nil {
		h.logger.Warn().Err(err).Str("action", action).Msg("cooldown check failed")
		return true
	}
	return ok
}

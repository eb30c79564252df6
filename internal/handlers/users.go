package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/metrics"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

// UserList is a page of users.
type UserList struct {
	Users []models.User `json:"users"`
	Total int           `json:"total"`
}

// ListUsers returns all accounts, optionally filtered by ?role. Admin only.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		h.Error(w, http.StatusBadRequest, "invalid role")
		return
	}
	h.listUsers(w, r, role)
}

// ListCandidates returns candidate accounts for enterprises browsing talent.
func (h *Handler) ListCandidates(w http.ResponseWriter, r *http.Request) {
	h.listUsers(w, r, models.RoleCandidate)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request, role models.Role) {
	limit, offset := pageParams(r)
	users, total, err := h.Store.ListUsers(r.Context(), role, limit, offset)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, UserList{Users: users, Total: total})
}

// CreateUserRequest is the body of POST /users.
type CreateUserRequest struct {
	Name       string             `json:"name" validate:"required,max=100"`
	Email      string             `json:"email" validate:"required,email"`
	Password   string             `json:"password" validate:"required,min=6,max=72"`
	Role       models.Role        `json:"role" validate:"required,oneof=ADMIN ENTERPRISE CANDIDATE"`
	Picture    string             `json:"picture"`
	Profile    *models.Profile    `json:"profile"`
	Enterprise *models.Enterprise `json:"enterprise"`
}

// CreateUser adds an account on behalf of an administrator. The account is
// active and verified straight away; no verification email is sent.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	hash, err := auth.HashPassword(req.Password)
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
		EmailVerified:      true,
		VerificationStatus: models.VerificationApproved,
		Picture:            req.Picture,
	}
	if req.Profile != nil {
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
	h.logger.Info().Str("user_id", user.ID.String()).Str("role", string(user.Role)).
		Str("by", h.claims(r).UserID.String()).Msg("user created by admin")

	h.JSON(w, http.StatusCreated, user)
}

// GetUser returns a single profile.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	user, err := h.Store.GetUserByID(r.Context(), id)
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

// UpdateUserRequest carries the editable profile fields. Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name       *string            `json:"name" validate:"omitempty,min=1,max=100"`
	Picture    *string            `json:"picture"`
	Profile    *models.Profile    `json:"profile"`
	Enterprise *models.Enterprise `json:"enterprise"`

	// Admin only.
	Role               *models.Role               `json:"role" validate:"omitempty,oneof=ADMIN ENTERPRISE CANDIDATE"`
	IsActive           *bool                      `json:"is_active"`
	VerificationStatus *models.VerificationStatus `json:"verification_status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// UpdateUser edits a profile. Callers may edit themselves; admins may edit anyone.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if !h.selfOrAdmin(r, id) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	var req UpdateUserRequest
	if !h.decode(w, r, &req) {
		return
	}
	if (req.Role != nil || req.IsActive != nil || req.VerificationStatus != nil) && !h.isAdmin(r) {
		h.Error(w, http.StatusForbidden, "Only administrators can change role or status")
		return
	}

	user, err := h.Store.GetUserByID(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if req.Name != nil {
		user.Name = sanitizeName(*req.Name)
	}
	if req.Picture != nil {
		user.Picture = *req.Picture
	}
	if req.Profile != nil {
		user.Profile = *req.Profile
	}
	if req.Enterprise != nil {
		user.Enterprise = req.Enterprise
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.VerificationStatus != nil {
		user.VerificationStatus = *req.VerificationStatus
	}

	if err := h.Store.UpdateUser(r.Context(), user); err != nil {
		h.Internal(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, user)
}

// DeleteUser removes an account. Callers may delete themselves; admins may delete anyone.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uuidParam(w, r, "id")
	if !ok {
		return
	}
	if !h.selfOrAdmin(r, id) {
		h.Error(w, http.StatusForbidden, "Access denied")
		return
	}
	deleted, err := h.Store.DeleteUser(r.Context(), id)
	if err != nil {
		h.Internal(w, r, err)
		return
	}
	if !deleted {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "User deleted"})
}

// pageParams reads ?limit and ?offset; the store clamps the limit.
func pageParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/api/middleware"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/auth"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/assistant"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/recommender"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/integrations/resume"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/models"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/realtime"
	"github.com/FantasticFiveE/PiFantasticFive-sub000/internal/store"
)

var validate = validator.New()

// Deps holds the collaborators shared by all HTTP handlers.
type Deps struct {
	Store       store.DataStore
	Redis       *store.RedisStore // optional
	Tokens      *auth.TokenService
	Google      auth.GoogleVerifier // optional
	Mailer      Mailer
	Parser      resume.Parser
	Recommender recommender.Recommender
	Assistant   assistant.Generator // optional
	Dispatcher  *realtime.Dispatcher
	Registry    realtime.Registry
	UploadDir   string
	// SecureCookies marks the token cookie Secure.
	SecureCookies bool
	Logger        zerolog.Logger
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	Deps
	logger zerolog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		Deps:   deps,
		logger: deps.Logger.With().Str("component", "handlers").Logger(),
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"message": message})
}

// Upstream reports a failed call to a collaborator service.
func (h *Handler) Upstream(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.Warn().Err(err).Str("request_id", chimw.GetReqID(r.Context())).Msg(message)
	h.JSON(w, http.StatusBadGateway, map[string]string{"message": message, "details": err.Error()})
}

// Internal logs err and sends a generic 500.
func (h *Handler) Internal(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error().
		Err(err).
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg("request failed")
	h.Error(w, http.StatusInternalServerError, "Internal server error")
}

// decode parses a JSON body into v and validates its struct tags. It writes
// the 400 response itself and reports whether the handler may continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		h.Error(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return "invalid " + field
	}
}

// claims returns the authenticated caller. Routes using it sit behind RequireAuth.
func (h *Handler) claims(r *http.Request) *auth.Claims {
	return middleware.GetClaimsFromContext(r.Context())
}

func (h *Handler) isAdmin(r *http.Request) bool {
	c := h.claims(r)
	return c != nil && c.Role == models.RoleAdmin
}

// selfOrAdmin reports whether the caller is id or an administrator.
func (h *Handler) selfOrAdmin(r *http.Request, id uuid.UUID) bool {
	c := h.claims(r)
	return c != nil && (c.UserID == id || c.Role == models.RoleAdmin)
}

// enterpriseScope picks the enterprise a listing is limited to: the caller for
// enterprises, and ?enterprise_id (or everyone, as uuid.Nil) for admins.
func (h *Handler) enterpriseScope(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !h.isAdmin(r) {
		return h.claims(r).UserID, true
	}
	raw := r.URL.Query().Get("enterprise_id")
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid enterprise_id")
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a chi URL parameter, writing a 400 when malformed.
func (h *Handler) uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	if len([]rune(name)) > 100 {
		name = string([]rune(name)[:100])
	}

	return name
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"perola.app/academy/internal/auth"
	"perola.app/academy/internal/core"
	"perola.app/academy/internal/logger"
	"perola.app/academy/internal/store"
)

type contextKey string

const userIDKey contextKey = "userID"

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Users   *core.UserService
	Chat    *core.ChatService
	Tracker *core.ProgressTracker
	Catalog *core.CatalogService
	Issuer  *auth.Issuer
	Health  Pinger
}

type APIHandler struct {
	users    *core.UserService
	chat     *core.ChatService
	tracker  *core.ProgressTracker
	catalog  *core.CatalogService
	issuer   *auth.Issuer
	health   Pinger
	log      *logger.Logger
	validate *validator.Validate
}

func NewAPIHandler(s Services, log *logger.Logger) *APIHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &APIHandler{
		users:    s.Users,
		chat:     s.Chat,
		tracker:  s.Tracker,
		catalog:  s.Catalog,
		issuer:   s.Issuer,
		health:   s.Health,
		log:      log.With("component", "api"),
		validate: validate,
	}
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			http.Error(w, "Authorization header must be a Bearer token", http.StatusUnauthorized)
			return
		}
		userID, err := h.issuer.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin must run after JWTAuthMiddleware.
func (h *APIHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := UserIDFromContext(r.Context())
		user, err := h.users.GetUser(r.Context(), userID)
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}
		if err != nil {
			h.log.Error("failed to load user for admin check", "user_id", userID, "error", err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}
		if !user.IsAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *store.User `json:"user"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to log in")
		return
	}

	token, err := h.issuer.GenerateJWT(user.ID)
	if err != nil {
		h.log.Error("failed to generate token", "user_id", user.ID, "error", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	limit := core.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	messages, err := h.chat.History(r.Context(), userID, limit)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

type PostMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// PostMessageHandler blocks for the typing delay. A client that disconnects
// meanwhile cancels the request context, so only its own message is kept.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req PostMessageRequest
	if !h.decode(w, r, &req) {
		return
	}

	exchange, err := h.chat.SendMessage(r.Context(), userID, req.Text)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to post message")
		return
	}
	writeJSON(w, http.StatusCreated, exchange)
}

func (h *APIHandler) ClearMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	deleted, err := h.chat.ClearHistory(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to clear messages")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (h *APIHandler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]string{
		"message": "Checkout is not available yet. Please contact the boutique to complete your order.",
	})
}

// decode reads a JSON body into dst and validates it, writing a 400 on
// failure.
func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, "Invalid request: "+describeValidation(err), http.StatusBadRequest)
		return false
	}
	return true
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, core.ErrEmptyMessage), errors.Is(err, core.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, core.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, core.ErrInvalidCredentials):
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
	case r.Context().Err() != nil:
		// The client is gone; nobody reads the response.
		h.log.Debug("request cancelled", "path", r.URL.Path, "error", err)
	default:
		userID, _ := UserIDFromContext(r.Context())
		h.log.Error(msg, "user_id", userID, "path", r.URL.Path, "error", err)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/repository"
	"github.com/TWRT/taskdesk/internal/service"
)

type ctxKey struct{}

func withUser(ctx context.Context, u repository.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func currentUser(r *http.Request) repository.User {
	u, _ := r.Context().Value(ctxKey{}).(repository.User)
	return u
}

type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := decodeBody(r, &reg); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	user, err := h.authService.Register(r.Context(), reg)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := decodeBody(r, &creds); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	token, err := h.authService.Login(r.Context(), creds)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// RequireUser rejects requests without a valid bearer token.
func (h *AuthHandler) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, r, h.logger, service.ErrInvalidToken)
			return
		}
		user, err := h.authService.Authenticate(r.Context(), raw)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		next(w, r.WithContext(withUser(r.Context(), user)))
	}
}

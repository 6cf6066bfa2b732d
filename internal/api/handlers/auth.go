// auth.go — регистрация и вход.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/openapi"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// maxAuthBody — предел тела JSON-запросов аутентификации.
const maxAuthBody = 64 << 10

// Register — POST /api/v1/auth/register.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req openapi.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.auth.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeServiceError(w, r, "register", err)
		return
	}

	writeJSON(w, http.StatusCreated, openapi.User{
		Id:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	})
}

// Login — POST /api/v1/auth/login.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req openapi.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		apierrors.ValidationError(w, "email и password обязательны")
		return
	}

	tok, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, openapi.TokenResponse{
		Token:     tok.Token,
		TokenType: tok.TokenType,
		ExpiresAt: tok.ExpiresAt,
	})
}

// decodeJSON разбирает тело запроса. false — ответ 400 уже записан.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAuthBody))
	if err := dec.Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

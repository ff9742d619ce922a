package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/application/account"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/domain"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/pkg/validate"
	"github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// AuthHandler handles the account lifecycle endpoints.
type AuthHandler struct {
	svc          account.Service
	cookieMaxAge time.Duration
	secureCookie bool
}

func NewAuthHandler(svc account.Service, cookieMaxAge time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, cookieMaxAge: cookieMaxAge, secureCookie: secureCookie}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, token, err := h.svc.Signup(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, AccountEnvelope{
		Account: a.Public(),
		Message: "account created successfully",
	})
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.VerifyEmail(r.Context(), req.Code)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{
		Account: a.Public(),
		Message: "email verified successfully",
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	a, token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, AccountEnvelope{
		Account: a.Public(),
		Message: "logged in successfully",
	})
}

// Logout is stateless: the session token lives only in the cookie, so
// clearing the cookie is the whole operation.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out successfully"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password reset email sent"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	var req domain.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.svc.ResetPassword(r.Context(), token, req.Password); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password reset successfully"})
}

func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
		return
	}
	a, err := h.svc.CheckAuth(r.Context(), claims.AccountID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountEnvelope{Account: a.Public()})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
}

package handler

import (
	"net/http"

	"pixgate/internal/auth"
	"pixgate/internal/model"
	"pixgate/internal/service"
)

// AuthHandler serves dashboard registration, login and logout.
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
	resolver    *auth.Resolver
	secure      bool
}

func NewAuthHandler(authService *service.AuthService, userService *service.UserService, resolver *auth.Resolver, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		resolver:    resolver,
		secure:      secureCookies,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Name == "" || len(req.Password) < 8 {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "email, name and a password of at least 8 characters are required")
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Name, req.Password, model.RoleSeller)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login opens a dashboard session and sets the auth-token cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, auth.KindDashboard)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, kind auth.Kind) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, CodeInvalidRequest, "email and password are required")
		return
	}

	res, err := h.authService.Login(r.Context(), kind, req.Email, req.Password, clientIP(r))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	auth.SetSessionCookie(w, kind, res.Token, res.TTL, h.secure)
	respondWithJSON(w, http.StatusOK, res.Identity)
}

// Logout revokes the session and clears the cookie. It succeeds even when
// no session cookie is present.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, auth.KindDashboard)
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request, kind auth.Kind) {
	// Logout is not gated: an expired or absent session still gets its
	// cookie cleared.
	identity, err := h.resolver.ResolveIdentity(r, kind)
	if err == nil && identity != nil {
		if err := h.authService.Logout(r.Context(), kind, identity); err != nil {
			respondWithServiceError(w, err)
			return
		}
	}
	auth.ClearSessionCookie(w, kind, h.secure)
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Test reports whether the request carries a valid dashboard session.
func (h *AuthHandler) Test(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, IdentityFrom(r.Context()))
}

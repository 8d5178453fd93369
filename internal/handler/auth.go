package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/service"
)

// sessionCookieMaxAge matches auth.DefaultSessionTTL, in seconds.
const sessionCookieMaxAge = 7 * 24 * 60 * 60

// AuthHandler exposes signup, login, federated sign-in, logout and whoami.
type AuthHandler struct {
	auth   *service.AuthService
	google *auth.GoogleProvider
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *service.AuthService, google *auth.GoogleProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, google: google, logger: logger}
}

// authResponse is the body of every successful authentication response. The
// token rides in the body as well as the cookie so non-browser clients can
// use the Authorization header instead.
type authResponse struct {
	User         *model.User `json:"user"`
	SessionToken string      `json:"session_token"`
}

// setSessionCookie installs the session token for browser clients. The
// frontend is served from a different origin, hence SameSite=None + Secure.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

// HandleSignup registers an email/password account.
//
// HTTP: POST /api/auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, token, err := h.auth.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{User: user, SessionToken: token})
}

// HandleLogin authenticates an email/password pair.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{User: user, SessionToken: token})
}

// HandleSessionData completes federated sign-in through the external
// identity service: the browser hands over the session-exchange id it got
// from the provider flow, and this endpoint trades it for the profile and
// the provider-issued session token.
//
// HTTP: GET /api/auth/session-data  (X-Session-ID header)
func (h *AuthHandler) HandleSessionData(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get("X-Session-ID")

	user, token, err := h.auth.ExchangeExternalSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{User: user, SessionToken: token})
}

// HandleLogout revokes every session the caller owns and clears the cookie.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	if err := h.auth.Logout(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleGoogleLogin starts the direct Google OAuth code flow. A random state
// value goes into a short-lived cookie for the CSRF check on callback.
//
// HTTP: GET /auth/google/login
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback finishes the Google flow: state check, code exchange,
// account upsert, session cookie, redirect home.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state cookie has served its purpose.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	_, token, err := h.auth.LoginWithGoogle(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

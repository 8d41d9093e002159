package controller

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"mars3lo-orders/config"
	"mars3lo-orders/models"
)

const (
	sessionName   = "mars3lo_session"
	keyRole       = "role"
	keySessionID  = "sid"
	sessionMaxAge = 12 * 60 * 60
)

type ctxKey int

const (
	ctxRole ctxKey = iota
	ctxSessionID
)

// AuthController handles login, logout and role checks
type AuthController struct {
	store     sessions.Store
	showroom  config.Credentials
	warehouse config.Credentials
}

// NewAuthController creates a new AuthController
func NewAuthController(store sessions.Store, showroom, warehouse config.Credentials) *AuthController {
	return &AuthController{store: store, showroom: showroom, warehouse: warehouse}
}

// NewSessionStore creates the cookie store used for role sessions
func NewSessionStore(key []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Path = "/"
	store.Options.MaxAge = sessionMaxAge
	return store
}

// Login handles POST /login
// Example request:
// POST /login
// {"username": "showroom", "password": "secret"}
// Example response:
// {"role": "showroom"}
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 Login: Received %s request to %s", r.Method, r.URL.Path)

	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "Login", err)
		return
	}

	role, ok := c.roleFor(strings.TrimSpace(req.Username), req.Password)
	if !ok {
		log.Printf("❌ Login: invalid credentials for %q", req.Username)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
		return
	}

	session, _ := c.store.Get(r, sessionName)
	session.Values[keyRole] = string(role)
	session.Values[keySessionID] = uuid.NewString()
	if err := session.Save(r, w); err != nil {
		writeError(w, "Login", err)
		return
	}

	log.Printf("✅ Login: %s logged in as %s", req.Username, role)
	writeJSON(w, http.StatusOK, models.LoginResponse{Role: role})
}

// Logout handles POST /logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	log.Printf("📥 Logout: Received %s request to %s", r.Method, r.URL.Path)

	session, _ := c.store.Get(r, sessionName)
	delete(session.Values, keyRole)
	delete(session.Values, keySessionID)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		writeError(w, "Logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *AuthController) roleFor(username, password string) (models.Role, bool) {
	if matches(c.showroom, username, password) {
		return models.RoleShowroom, true
	}
	if matches(c.warehouse, username, password) {
		return models.RoleWarehouse, true
	}
	return "", false
}

// matches compares a login against one credential pair. A pair without a
// password never matches.
func matches(cred config.Credentials, username, password string) bool {
	if cred.Password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(cred.Username), []byte(username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) == 1
	return userOK && passOK
}

// RequireRole lets the request through when the session carries one of roles.
// It answers 401 without a session and 403 for any other role.
func (c *AuthController) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, _ := c.store.Get(r, sessionName)
			raw, _ := session.Values[keyRole].(string)
			sid, _ := session.Values[keySessionID].(string)
			if raw == "" || sid == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login required"})
				return
			}

			role := models.Role(raw)
			allowed := false
			for _, want := range roles {
				if role == want {
					allowed = true
					break
				}
			}
			if !allowed {
				log.Printf("❌ Auth: role %s cannot %s %s", role, r.Method, r.URL.Path)
				writeJSON(w, http.StatusForbidden, map[string]string{"error": models.ErrForbidden.Error()})
				return
			}

			ctx := context.WithValue(r.Context(), ctxRole, role)
			ctx = context.WithValue(ctx, ctxSessionID, sid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionIDFrom returns the id of the logged-in session
func sessionIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(ctxSessionID).(string)
	return sid
}

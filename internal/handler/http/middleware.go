package http

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/sellora/identity/internal/domain"
	"github.com/sellora/identity/internal/service"
	"github.com/sellora/identity/pkg/httputil"
	"github.com/sellora/identity/pkg/logger"
)

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Principal is the authenticated caller: the resolved session and its user.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

type principalContextKey struct{}

// PrincipalFromContext returns the authenticated principal, or nil when the
// request carried no valid session.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// CookieConfig holds the session cookie attributes.
type CookieConfig struct {
	Name   string
	Secure bool
}

// sessionToken extracts the bearer token from the session cookie or, failing
// that, the Authorization header. The cookie wins because browsers send it
// automatically; the header serves API clients.
func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// SessionAuth resolves the request's session token into a principal. Requests
// without a valid session pass through unauthenticated; use RequireAuth on
// routes that need a caller.
func SessionAuth(sessions *service.SessionService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			cached, err := sessions.Resolve(r.Context(), token)
			if err != nil {
				httputil.WriteError(w, r, err, logger.FromContext(r.Context()))
				return
			}
			if cached == nil {
				// Invalid or expired; treated the same as no token at all.
				next.ServeHTTP(w, r)
				return
			}

			ctx := withPrincipal(r.Context(), &Principal{User: &cached.User, Session: &cached.Session})
			ctx = logger.WithActorID(ctx, cached.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that did not resolve to a principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromContext(r.Context()) == nil {
			httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "UNAUTHENTICATED", Message: "authentication required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSystemRole rejects authenticated callers below the given system role.
func RequireSystemRole(min domain.SystemRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if p == nil {
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNAUTHENTICATED", Message: "authentication required"},
				})
				return
			}
			if !p.User.Role.AtLeast(min) {
				httputil.WriteJSON(w, http.StatusForbidden, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "FORBIDDEN", Message: "insufficient permissions"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestContext captures the client snapshot recorded on new sessions.
func requestContext(r *http.Request) service.RequestContext {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		// First hop is the client; the rest are proxies.
		if i := strings.IndexByte(ip, ','); i >= 0 {
			ip = ip[:i]
		}
		ip = strings.TrimSpace(ip)
	} else {
		// RemoteAddr may be a bare IPv6 address; only strip a real port.
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ip = host
		} else {
			ip = r.RemoteAddr
		}
	}
	return service.RequestContext{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}

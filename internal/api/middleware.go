package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"storefront-banners/internal/banner"
)

// AdminKeyHeader carries the shared admin key for service-to-service calls.
const AdminKeyHeader = "X-Admin-Key"

type viewerKey struct{}

// Claims is the bearer token payload: sub identifies the user, role drives
// role targeting and admin access.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ViewerFrom returns the viewer attached by Identity, or an anonymous guest.
func ViewerFrom(ctx context.Context) banner.Viewer {
	v, _ := ctx.Value(viewerKey{}).(banner.Viewer)
	return v
}

func WithViewer(ctx context.Context, v banner.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// Identity turns an optional HS256 bearer token into a banner.Viewer.
// Missing or invalid tokens leave the request anonymous; they are never an
// error on their own.
func Identity(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := parseToken(raw, secret)
			if err != nil {
				zerolog.Ctx(r.Context()).Debug().Err(err).Msg("ignoring invalid bearer token")
				next.ServeHTTP(w, r)
				return
			}
			v := banner.Viewer{Authenticated: true, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), v)))
		})
	}
}

func parseToken(raw, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAdmin admits a viewer whose role is adminRole, or a request whose
// X-Admin-Key matches adminKey. An empty adminKey disables key access.
func RequireAdmin(adminRole, adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v := ViewerFrom(r.Context())
			if v.Authenticated && adminRole != "" && v.Role == adminRole {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get(AdminKeyHeader)
			if adminKey != "" && subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}
			if !v.Authenticated && key == "" {
				writeErrorBody(w, http.StatusUnauthorized, errorBody{Code: CodeUnauthorized, Message: "admin credentials required"})
				return
			}
			writeErrorBody(w, http.StatusForbidden, errorBody{Code: CodeForbidden, Message: "admin access denied"})
		})
	}
}

// requestIDLogger adds chi's request id to the per-request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("req_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

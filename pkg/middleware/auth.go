package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"sowp-lms/pkg/apierr"
	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/models"
	"sowp-lms/pkg/repos"
	"sowp-lms/pkg/response"
)

type ctxKey struct{}

type Auth struct {
	secret []byte
	users  repos.UserRepo
	log    *logger.Logger
}

func NewAuth(secret string, users repos.UserRepo, log *logger.Logger) *Auth {
	return &Auth{secret: []byte(secret), users: users, log: log.With("component", "auth")}
}

// Middleware resolves the caller from a bearer token or the "token" cookie.
// The token subject is the user's email.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFrom(r)
		if raw == "" {
			response.Error(w, a.log, apierr.Unauthorized())
			return
		}
		email, err := a.parse(raw)
		if err != nil {
			a.log.Debug("token rejected", "error", err)
			response.Error(w, a.log, apierr.Unauthorized())
			return
		}
		user, err := a.users.Get(r.Context(), nil, email)
		if err != nil {
			if apierr.Is(err, apierr.CodeNotFound) {
				err = apierr.Unauthorized()
			}
			response.Error(w, a.log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), *user)))
	})
}

// RequireAdmin must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		if !ok {
			response.Error(w, nil, apierr.Unauthorized())
			return
		}
		if !user.IsAdmin() {
			response.Error(w, nil, apierr.Forbidden())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie("token"); err == nil {
		return c.Value
	}
	// browsers cannot set headers on websocket upgrades
	return r.URL.Query().Get("token")
}

func (a *Auth) parse(raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return sub, nil
}

// Issue signs a token for email. Sign-in itself lives with the identity
// provider; this is for service accounts and tests.
func (a *Auth) Issue(email string, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(a.secret)
}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)
	return user, ok
}

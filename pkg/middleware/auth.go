package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/giftbid/pkg/auth"
	"github.com/shashiranjanraj/giftbid/pkg/response"
)

type authCtxKey int

const (
	subjectKey authCtxKey = iota
	emailKey
)

// Subject returns the authenticated identity-provider subject from the
// request context, or "" for unauthenticated requests.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}

// Email returns the authenticated account email from the request context.
func Email(ctx context.Context) string {
	e, _ := ctx.Value(emailKey).(string)
	return e
}

// Auth validates the bearer token and stores the caller's subject and email
// in the request context. Handlers read them back via Subject and Email.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)

		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
		ctx = context.WithValue(ctx, emailKey, claims.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package auth

import (
	"net/http"
	"strconv"

	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/internal/platform/httpx"
	"github.com/horizon-rh/horizon-rh/internal/shared"
)

// ActorMiddleware resolves the session's user into an explicit actor context.
// Routes behind RequireActor never see an ambient session; they read the actor
// from the request context only.
type ActorMiddleware struct {
	service *Service
}

// NewActorMiddleware constructs the middleware.
func NewActorMiddleware(service *Service) *ActorMiddleware {
	return &ActorMiddleware{service: service}
}

// Resolve attaches the actor context when a valid user session exists. It
// never rejects; use RequireActor for protected routes.
func (m *ActorMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(sess.User(), 10, 64)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		actor, err := m.service.Actor(r.Context(), userID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(leave.ContextWithActor(r.Context(), actor)))
	})
}

// RequireActor rejects requests without a resolved actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := leave.ActorFromContext(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session requise")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"net/http"

	samunu "github.com/nestorzamili/samunu-project"
)

type sessionContextKey struct{}

// SessionFromContext extracts the confirmed session attached by [Gate].
func SessionFromContext(ctx context.Context) (*samunu.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*samunu.Session)
	return sess, ok
}

// SessionSource answers session lookups for incoming requests.
// [samunu.Engine] satisfies it; tests substitute synthetic sources.
type SessionSource interface {
	Session(ctx context.Context, headers http.Header) (*samunu.Session, error)
}

// Gate returns middleware that confirms an active session before the
// wrapped handler runs. The lookup is fresh on every request; there is
// no caching. Requests without a session, and requests whose lookup
// fails, are redirected to signInPath and the protected handler is
// never invoked. Confirmed sessions are attached to the request context
// for downstream consumers.
func Gate(source SessionSource, signInPath string) func(http.Handler) http.Handler {
	if signInPath == "" {
		signInPath = "/sign-in"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if source == nil {
				http.Redirect(w, r, signInPath, http.StatusFound)
				return
			}

			sess, err := source.Session(r.Context(), r.Header)
			if err != nil || sess == nil {
				// Fail closed: an unreachable provider is treated as no
				// session.
				http.Redirect(w, r, signInPath, http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

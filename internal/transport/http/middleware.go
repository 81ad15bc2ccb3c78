package httptransport

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	id "brandgov/pkg/domain"
	dErrors "brandgov/pkg/domain-errors"
	"brandgov/pkg/platform/httputil"
	"brandgov/pkg/requestcontext"
)

const (
	headerRequestID = "X-Request-ID"
	headerActorID   = "X-Actor-ID"
)

// RequestContext seeds request-scoped values: a correlation ID, the request
// time, and the acting user when the X-Actor-ID header is present. Actor
// enforcement happens per endpoint, not here, so read-only routes stay open.
func RequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())

		if raw := r.Header.Get(headerActorID); raw != "" {
			actorID, err := id.ParseUserID(raw)
			if err != nil {
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+headerActorID+" header"))
				return
			}
			ctx = requestcontext.WithActorID(ctx, actorID)
		}

		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireActor rejects mutating requests that arrive without an actor.
func requireActor(w http.ResponseWriter, r *http.Request) bool {
	if requestcontext.ActorID(r.Context()).IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, headerActorID+" header is required"))
		return false
	}
	return true
}

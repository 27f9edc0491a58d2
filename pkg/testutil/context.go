package testutil

import (
	"context"
	"net/http"

	id "cadastro/pkg/domain"
	authmw "cadastro/pkg/platform/middleware/auth"
	"cadastro/pkg/requestcontext"
)

// WithUser places an authenticated caller on the request context the way
// RequireAuth does. An unparsable userID leaves the request unchanged.
func WithUser(req *http.Request, userID, email string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	ctx := context.WithValue(req.Context(), authmw.ContextKeyUserID, parsed)
	ctx = context.WithValue(ctx, authmw.ContextKeyEmail, email)
	return req.WithContext(ctx)
}

// WithRequestID sets the request ID normally assigned by middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

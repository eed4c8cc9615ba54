package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
)

// identityFromRequest writes 401 and reports false when the request carries no identity.
func identityFromRequest(w http.ResponseWriter, r *http.Request) (jwt.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return jwt.Identity{}, false
	}
	return identity, true
}

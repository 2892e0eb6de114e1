package controllers

import (
	"net/http"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/api/responses"
)

// Ping answers with the route's access scope and, behind Auth, the caller.
// The frontend uses the three scopes to check a token's reach.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"scope": scope, "status": "ok"}
		if rep, ok := middleware.PrincipalFromContext(r.Context()); ok {
			body["sales_rep_id"] = rep.ID.String()
			body["role"] = string(rep.Role)
		}
		responses.WriteSuccess(w, body)
	}
}

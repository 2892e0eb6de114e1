package middleware

import (
	"net/http"
	"slices"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// RequireRole admits reps holding one of allowed. It runs after Auth; a
// request without a principal is treated as unauthenticated.
func RequireRole(logg *logger.Logger, allowed ...enums.SalesRepRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rep, ok := PrincipalFromContext(ctx)
			if !ok {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if slices.Contains(allowed, rep.Role) {
				next.ServeHTTP(w, r)
				return
			}
			if logg != nil {
				logg.Warn(logg.WithFields(ctx, map[string]any{
					"sales_rep_id": rep.ID.String(),
					"role":         rep.Role,
					"path":         r.URL.Path,
				}), "role not allowed")
			}
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role not allowed for this action"))
		})
	}
}

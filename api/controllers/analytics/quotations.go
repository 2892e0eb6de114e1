package analytics

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/internal/analytics"
	"github.com/angelmondragon/freightquote-backend/internal/analytics/types"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// QuotationAnalytics serves the quotation dashboard. Managers may pass
// ?sales_rep= to look at one rep; everybody else only sees their own numbers.
func QuotationAnalytics(service analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if service == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeDependency, "analytics unavailable"))
			return
		}
		principal, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sales rep context required"))
			return
		}

		span, err := parseWindow(r, clock())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		req := types.QuotationQueryRequest{
			SalesRep: principal.Name,
			Start:    span.start,
			End:      span.end,
		}
		if principal.Role == enums.RoleManager {
			req.SalesRep = strings.TrimSpace(r.URL.Query().Get("sales_rep"))
		}

		result, err := service.Query(ctx, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

package quotations

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/api/validators"
	"github.com/angelmondragon/freightquote-backend/internal/quotations"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// Lister reads the quotation worksheets.
type Lister interface {
	Requested(ctx context.Context, f quotations.RequestedFilter) (*quotations.RequestedList, error)
	Contracts(ctx context.Context, f quotations.ContractFilter) (*quotations.ContractList, error)
}

// Requested lists the wizard quotations. Every filter accepts repeated or
// comma-separated values.
func Requested(svc Lister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Requested(r.Context(), quotations.RequestedFilter{
			Origins:      validators.ParseQueryList(r, "origin"),
			Destinations: validators.ParseQueryList(r, "destination"),
			Services:     validators.ParseQueryList(r, "service"),
			Transports:   validators.ParseQueryList(r, "transport"),
			Containers:   validators.ParseQueryList(r, "container"),
			Clients:      validators.ParseQueryList(r, "client"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Contracts lists the contract quotations with their sale and profit totals.
// from and to are inclusive yyyy-mm-dd dates in loc.
func Contracts(svc Lister, loc *time.Location, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := validators.ParseQueryDate(r, "from", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryDate(r, "to", loc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if from != nil && to != nil && to.Before(*from) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must not be before from"))
			return
		}

		list, err := svc.Contracts(r.Context(), quotations.ContractFilter{
			From:    from,
			To:      to,
			POL:     validators.ParseQueryList(r, "pol"),
			POD:     validators.ParseQueryList(r, "pod"),
			Cargo:   validators.ParseQueryList(r, "cargo"),
			Clients: validators.ParseQueryList(r, "client"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

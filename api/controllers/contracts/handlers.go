package contracts

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/api/validators"
	"github.com/angelmondragon/freightquote-backend/internal/contracts"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Desk is the contracts desk surface used by the handlers.
type Desk interface {
	Options(ctx context.Context, pol, pod string) (contracts.Options, error)
	Search(ctx context.Context, f contracts.Filter) ([]contracts.Contract, error)
	Submit(ctx context.Context, rep contracts.Requester, req contracts.QuoteRequest, start time.Time) (*contracts.Submission, error)
	Document(ctx context.Context, requestID string) ([]byte, error)
}

type submitRequest struct {
	contracts.QuoteRequest
	// StartedAt is when the rep opened the desk; the duration log falls back to now.
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// Options lists the cascading POL, POD and commodity choices.
func Options(desk Desk, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts, err := desk.Options(r.Context(), strings.TrimSpace(q.Get("pol")), strings.TrimSpace(q.Get("pod")))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, opts)
	}
}

// Search returns the live contracts for a POL/POD pair.
func Search(desk Desk, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		found, err := desk.Search(r.Context(), contracts.Filter{
			POL:         strings.TrimSpace(q.Get("pol")),
			POD:         strings.TrimSpace(q.Get("pod")),
			Commodities: validators.ParseQueryList(r, "commodity"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if found == nil {
			found = []contracts.Contract{}
		}
		responses.WriteList(w, found, len(found))
	}
}

// Submit prices and persists a contract quotation.
func Submit(desk Desk, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		principal, ok := middleware.PrincipalFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sales rep context required"))
			return
		}

		var body submitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var start time.Time
		if body.StartedAt != nil {
			start = *body.StartedAt
		}

		sub, err := desk.Submit(ctx, contracts.Requester{
			ID:    principal.ID,
			Name:  principal.Name,
			Email: principal.Email,
			Role:  principal.Role,
		}, body.QuoteRequest, start)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// Document downloads the .xlsx quotation for {requestID}.
func Document(desk Desk, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := validators.PathParam(r, "requestID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		data, err := desk.Document(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteAttachment(w, xlsxContentType, fmt.Sprintf("quotation-%s.xlsx", requestID), data)
	}
}

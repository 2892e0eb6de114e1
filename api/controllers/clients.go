package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

type clientLister interface {
	List(ctx context.Context) ([]string, error)
}

// ClientsList returns the client directory used by the client selection page.
func ClientsList(svc clientLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if names == nil {
			names = []string{}
		}
		responses.WriteList(w, names, len(names))
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/freightquote-backend/api/responses"
	"github.com/angelmondragon/freightquote-backend/pkg/auth"
	"github.com/angelmondragon/freightquote-backend/pkg/auth/session"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
)

// Auth admits requests carrying a valid access token whose session is still
// open, and seeds the context with the rep behind it.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rep, err := authenticate(r, cfg, sessions)
			if err != nil {
				if pkgerrors.CodeOf(err) == pkgerrors.CodeUnauthorized {
					w.Header().Set("WWW-Authenticate", `Bearer realm="freightquote"`)
				}
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withRepLogging(WithPrincipal(r.Context(), rep), rep, logg)))
		})
	}
}

func authenticate(r *http.Request, cfg config.JWTConfig, sessions session.AccessSessionChecker) (Principal, error) {
	token, err := BearerToken(r)
	if err != nil {
		return Principal{}, err
	}
	claims, err := auth.ParseAccessToken(cfg, token)
	if err != nil {
		return Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	switch {
	case claims.ID == "":
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no session id")
	case !claims.Role.IsValid():
		return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "token role is not recognized")
	}

	if sessions != nil {
		open, err := sessions.HasSession(r.Context(), claims.ID)
		if err != nil {
			return Principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking session")
		}
		if !open {
			return Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session ended")
		}
	}

	return Principal{
		ID:       claims.SalesRepID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		AccessID: claims.ID,
	}, nil
}

func withRepLogging(ctx context.Context, rep Principal, logg *logger.Logger) context.Context {
	if logg == nil {
		return ctx
	}
	ctx = logg.WithSalesRep(ctx, rep.Email)
	return logg.WithFields(ctx, map[string]any{
		"sales_rep_id": rep.ID.String(),
		"actor_role":   string(rep.Role),
	})
}

// BearerToken reads the token from "Authorization: Bearer <token>". A bare
// token without the scheme is accepted for older clients.
func BearerToken(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	token := raw
	if scheme, rest, found := strings.Cut(raw, " "); found {
		if !strings.EqualFold(scheme, "bearer") {
			return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "unsupported authorization scheme")
		}
		token = strings.TrimSpace(rest)
	}
	if token == "" || strings.EqualFold(token, "bearer") || strings.ContainsAny(token, " \t") {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}

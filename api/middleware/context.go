package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
)

type contextKey string

const (
	ctxSalesRepID contextKey = "sales_rep_id"
	ctxRole       contextKey = "actor_role"
	ctxEmail      contextKey = "sales_rep_email"
	ctxName       contextKey = "sales_rep_name"
	ctxAccessID   contextKey = "access_id"
)

// Principal is the authenticated sales rep behind a request.
type Principal struct {
	ID       uuid.UUID
	Email    string
	Name     string
	Role     enums.SalesRepRole
	AccessID string
}

// WithPrincipal seeds ctx with the rep identity. Auth calls it after verifying the token.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxSalesRepID, p.ID)
	ctx = context.WithValue(ctx, ctxRole, p.Role)
	ctx = context.WithValue(ctx, ctxEmail, p.Email)
	ctx = context.WithValue(ctx, ctxName, p.Name)
	return context.WithValue(ctx, ctxAccessID, p.AccessID)
}

// PrincipalFromContext returns the rep seeded by Auth.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	id, ok := ctx.Value(ctxSalesRepID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return Principal{}, false
	}
	p := Principal{ID: id}
	p.Role, _ = ctx.Value(ctxRole).(enums.SalesRepRole)
	p.Email, _ = ctx.Value(ctxEmail).(string)
	p.Name, _ = ctx.Value(ctxName).(string)
	p.AccessID, _ = ctx.Value(ctxAccessID).(string)
	return p, true
}

func SalesRepIDFromContext(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.ID.String()
	}
	return ""
}

func RoleFromContext(ctx context.Context) enums.SalesRepRole {
	if ctx == nil {
		return ""
	}
	role, _ := ctx.Value(ctxRole).(enums.SalesRepRole)
	return role
}

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(ctxAccessID).(string)
	return v
}

package wizard

import (
	"context"

	"github.com/angelmondragon/freightquote-backend/api/middleware"
	"github.com/angelmondragon/freightquote-backend/internal/validation"
	"github.com/angelmondragon/freightquote-backend/internal/wizard"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

const (
	defaultUploadMB = 50
	maxUploadMemory = 8 << 20
	uploadFormField = "files"
)

type clientRequest struct {
	Client          string `json:"client" validate:"required,notblank,max=200"`
	ClientReference string `json:"client_reference" validate:"max=200"`
}

type serviceTypeRequest struct {
	Service string `json:"service" validate:"required,notblank"`
}

type rowResponse struct {
	Index   int             `json:"index"`
	Session *wizard.Session `json:"session"`
}

type filesResponse struct {
	Field string   `json:"field"`
	Files []string `json:"files"`
}

type validationResponse struct {
	Valid  bool              `json:"valid"`
	Errors validation.Errors `json:"errors"`
}

func repFromContext(ctx context.Context) (wizard.Rep, error) {
	principal, ok := middleware.PrincipalFromContext(ctx)
	if !ok {
		return wizard.Rep{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "sales rep context required")
	}
	return wizard.Rep{
		ID:    principal.ID,
		Name:  principal.Name,
		Email: principal.Email,
		Role:  principal.Role,
	}, nil
}

package salesreps

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var seedValidator = validator.New()

// Seed adds req to the directory unless its email is already there, in which
// case the existing rep is returned untouched. created reports which happened.
func Seed(ctx context.Context, repo repository, passCfg config.PasswordConfig, req RegisterRequest) (rep *SalesRepDTO, created bool, err error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if err := seedValidator.Struct(req); err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sales rep")
	}

	existing, err := repo.FindByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return FromModel(existing), false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sales rep")
	}

	rep, err = register(ctx, repo, passCfg, req)
	if err != nil {
		return nil, false, err
	}
	return rep, true, nil
}

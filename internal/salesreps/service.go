// Package salesreps is the sales rep directory: login, token refresh and the
// manager-maintained roster.
package salesreps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pkgAuth "github.com/angelmondragon/freightquote-backend/pkg/auth"
	"github.com/angelmondragon/freightquote-backend/pkg/auth/session"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth and directory controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, id uuid.UUID) (*SalesRepDTO, error)
	List(ctx context.Context, activeOnly bool) ([]SalesRepDTO, error)
	Register(ctx context.Context, req RegisterRequest) (*SalesRepDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type repository interface {
	Create(ctx context.Context, dto CreateSalesRepDTO) (*models.SalesRep, error)
	FindByEmail(ctx context.Context, email string) (*models.SalesRep, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.SalesRep, error)
	List(ctx context.Context, activeOnly bool) ([]models.SalesRep, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type sessionManager interface {
	Open(ctx context.Context, salesRepID uuid.UUID) (session.Issued, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (session.Issued, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build the service.
type ServiceParams struct {
	Repo           repository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

type service struct {
	repo    repository
	session sessionManager
	jwtCfg  config.JWTConfig
	passCfg config.PasswordConfig
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("sales rep repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:    params.Repo,
		session: params.SessionManager,
		jwtCfg:  params.JWTConfig,
		passCfg: params.PasswordConfig,
		now:     now,
	}, nil
}

// Login verifies the argon2id password of an active rep and issues a token pair.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	rep, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sales rep")
	}
	valid, err := security.VerifyPassword(req.Password, rep.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !rep.Active {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, rep.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	rep.LastLoginAt = &now

	issued, err := s.session.Open(ctx, rep.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return s.respond(rep, issued, now)
}

// Refresh rotates the refresh token bound to the access token's jti. The access
// token may be expired.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*LoginResponse, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	issued, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}
	rep, err := s.repo.FindByID(ctx, issued.SalesRepID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sales rep")
	}
	if !rep.Active {
		_ = s.session.Revoke(ctx, issued.AccessID)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "sales rep is disabled")
	}
	return s.respond(rep, issued, s.now())
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, id uuid.UUID) (*SalesRepDTO, error) {
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "sales rep not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup sales rep")
	}
	return FromModel(rep), nil
}

func (s *service) List(ctx context.Context, activeOnly bool) ([]SalesRepDTO, error) {
	reps, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list sales reps")
	}
	out := make([]SalesRepDTO, 0, len(reps))
	for i := range reps {
		out = append(out, *FromModel(&reps[i]))
	}
	return out, nil
}

// Register hashes the password and adds the rep. Duplicate emails conflict.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*SalesRepDTO, error) {
	return register(ctx, s.repo, s.passCfg, req)
}

func register(ctx context.Context, repo repository, passCfg config.PasswordConfig, req RegisterRequest) (*SalesRepDTO, error) {
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	hash, err := security.HashPassword(req.Password, passCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	rep, err := repo.Create(ctx, CreateSalesRepDTO{
		Email:        req.Email,
		Name:         req.Name,
		Position:     req.Position,
		Phone:        req.Phone,
		Role:         req.Role,
		PasswordHash: hash,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create sales rep")
	}
	return FromModel(rep), nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "sales rep not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update sales rep")
	}
	return nil
}

func (s *service) respond(rep *models.SalesRep, issued session.Issued, now time.Time) (*LoginResponse, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		SalesRepID: rep.ID,
		Email:      rep.Email,
		Name:       rep.Name,
		Role:       rep.Role,
		JTI:        issued.AccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: issued.RefreshToken,
		SalesRep:     FromModel(rep),
	}, nil
}

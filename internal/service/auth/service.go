package auth

import (
	"context"
	"errors"
	"time"

	"github.com/mediqueue/clinic-api/internal/config"
	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
	"github.com/mediqueue/clinic-api/pkg/auth"
	apperrors "github.com/mediqueue/clinic-api/pkg/errors"
	"github.com/mediqueue/clinic-api/pkg/security"
)

// Service implements account registration and a single login/refresh/logout
// flow parameterized by an allowed-role set. There is one code path for all
// three roles rather than per-role duplicates.
type Service struct {
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	jwt       auth.JWTService
	hasher    security.PasswordHasher
	cfg       config.JWTConfig
}

func NewService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService,
	hasher security.PasswordHasher,
	cfg config.JWTConfig,
) *Service {
	return &Service{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		jwt:       jwtSvc,
		hasher:    hasher,
		cfg:       cfg,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	if !req.Role.Valid() {
		return nil, apperrors.BadRequest("unknown role")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error())
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, apperrors.Internal(err)
	}

	return s.issueTokens(ctx, user)
}

// Login authenticates the credentials and rejects accounts whose role is not
// in allowedRoles, so role-specific endpoints share this one implementation.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest, allowedRoles ...model.Role) (*model.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	if len(allowedRoles) > 0 && !roleAllowed(user.Role, allowedRoles) {
		return nil, apperrors.Forbidden("account role may not use this login")
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	valid, err := s.tokenRepo.Valid(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !valid {
		return nil, apperrors.Unauthorized("refresh token revoked")
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized("account no longer exists")
		}
		return nil, apperrors.Internal(err)
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) Logout(ctx context.Context, actor model.Actor) error {
	if err := s.tokenRepo.Revoke(ctx, actor.UserID); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

func (s *Service) issueTokens(ctx context.Context, user *model.User) (*model.AuthResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	ttl := int((time.Duration(s.cfg.RefreshExpiryHours) * time.Hour).Seconds())
	if err := s.tokenRepo.Save(ctx, user.ID, refresh, ttl); err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.AuthResponse{
		User:   user,
		Tokens: model.TokenPair{AccessToken: access, RefreshToken: refresh},
	}, nil
}

func roleAllowed(role model.Role, allowed []model.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/daylog-app/daylog-api/internal/models"
	appErrors "github.com/daylog-app/daylog-api/pkg/errors"
)

type userStore interface {
	credentialStore
	ExistsByLoginID(ctx context.Context, loginID string) (bool, error)
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	GetProfile(ctx context.Context, id int64) (*models.Profile, error)
}

// UserService covers account creation and profile lookup.
type UserService struct {
	repo      userStore
	hasher    secretHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userStore, hasher secretHasher, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, hasher: hasher, validator: validate, logger: logger}
}

// Register creates a new active user account. Login id and nickname must be
// unique.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid register payload")
	}

	if exists, err := s.repo.ExistsByLoginID(ctx, req.LoginID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check login id")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "login id already in use")
	}

	if exists, err := s.repo.ExistsByNickname(ctx, req.Nickname); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check nickname")
	} else if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "nickname already in use")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		LoginID:         req.LoginID,
		Name:            req.Name,
		Nickname:        req.Nickname,
		PasswordHash:    passwordHash,
		ProfileImageURL: req.ProfileImageURL,
		Status:          models.StatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

// GetProfile returns the public profile for a user.
func (s *UserService) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

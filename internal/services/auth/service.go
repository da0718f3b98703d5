package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"scribes/internal/apperr"
	"scribes/internal/config"
	"scribes/internal/utils/crypto"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles authentication business logic
type Service struct {
	repo   UsersRepo
	config config.Config
	log    *slog.Logger
	now    func() time.Time
}

// NewService creates a new auth service
func NewService(repo UsersRepo, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// SignUp registers a new user and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	email := normalizeEmail(req.Email)

	hash, err := crypto.HashPassword(req.Password, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return nil, apperr.Store("failed to process password", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := &User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicate) {
			s.log.Info("sign-up with existing email")
			return nil, ErrRegistration
		}
		s.log.Error("failed to create user", "error", err)
		return nil, apperr.Store("failed to create user", err)
	}

	return s.issue(user)
}

// SignIn checks credentials and returns a fresh access token.
func (s *Service) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error("failed to find user by email", "error", err)
		return nil, apperr.Store("failed to sign in", err)
	}

	if err := crypto.CheckPassword(req.Password, user.PasswordHash); err != nil {
		s.log.Info("password mismatch", "user_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// ChangePassword replaces the password after checking the current one.
// A token whose account is gone gets ErrInvalidCredentials.
func (s *Service) ChangePassword(ctx context.Context, userID bson.ObjectID, req ChangePasswordRequest) error {
	user, err := s.account(ctx, userID)
	if err != nil {
		return err
	}
	if err := crypto.CheckPassword(req.CurrentPassword, user.PasswordHash); err != nil {
		s.log.Info("password change with wrong current password", "user_id", userID.Hex())
		return ErrWrongPassword
	}
	if req.NewPassword == req.CurrentPassword {
		return ErrSamePassword
	}

	hash, err := crypto.HashPassword(req.NewPassword, s.config.BcryptCost)
	if err != nil {
		s.log.Error("failed to hash password", "error", err)
		return apperr.Store("failed to process password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash, s.now().UTC().Truncate(time.Millisecond)); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrInvalidCredentials
		}
		s.log.Error("failed to update password", "error", err, "user_id", userID.Hex())
		return apperr.Store("failed to update password", err)
	}
	s.log.Info("password changed", "user_id", userID.Hex())
	return nil
}

// DeleteAccount removes the signed-in user with all of their notes and
// reminders. Issued tokens stay valid until they expire but own nothing.
func (s *Service) DeleteAccount(ctx context.Context, userID bson.ObjectID) error {
	if err := s.repo.DeleteAccount(ctx, userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return ErrInvalidCredentials
		}
		s.log.Error("failed to delete account", "error", err, "user_id", userID.Hex())
		return apperr.Store("failed to delete account", err)
	}
	s.log.Info("account deleted", "user_id", userID.Hex())
	return nil
}

func (s *Service) account(ctx context.Context, userID bson.ObjectID) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.log.Error("failed to find user", "error", err, "user_id", userID.Hex())
		return nil, apperr.Store("failed to find user", err)
	}
	return user, nil
}

func (s *Service) issue(user *User) (*AuthResponse, error) {
	token, err := s.generateAccessToken(user)
	if err != nil {
		s.log.Error(ErrGenAccessToken.Error(), "error", err, "user_id", user.ID.Hex())
		return nil, apperr.Store(ErrGenAccessToken.Error(), err)
	}
	return &AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.config.AccessTokenMinutes * 60,
	}, nil
}

func (s *Service) generateAccessToken(user *User) (string, error) {
	ttl := time.Duration(s.config.AccessTokenMinutes) * time.Minute
	return issueToken(Identity{UserID: user.ID, Email: user.Email}, s.now(), ttl, s.config.JWTAlgorithm, s.config.JWTSecret)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"schedcal/internal/cache"
	"schedcal/internal/models"
	"schedcal/internal/repository"
	"schedcal/internal/security"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrInvalidEmail       = errors.New("please enter a valid email address")
	ErrShortPassword      = errors.New("password must be at least 6 characters long")
	ErrMissingLogin       = errors.New("login (username or email) and password are required")
	ErrEmptyUserPatch     = errors.New("at least one field (username or email) is required")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

const minPasswordLength = 6

type UserService struct {
	users  repository.Users
	events *cache.EventCache
	log    zerolog.Logger
}

func NewUserService(users repository.Users, events *cache.EventCache, log zerolog.Logger) *UserService {
	return &UserService{users: users, events: events, log: log}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	if username == "" || email == "" || password == "" {
		return models.User{}, ErrMissingFields
	}
	if !validEmail(email) {
		return models.User{}, ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return models.User{}, ErrShortPassword
	}

	digest, err := security.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.Create(ctx, models.User{
		Username:       username,
		Email:          email,
		PasswordDigest: digest,
	})
	if err != nil {
		return models.User{}, err
	}

	s.log.Info().Int("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Authenticate resolves login against username or email and verifies the
// password. Every failure mode collapses to ErrInvalidCredentials so the
// caller cannot tell which part was wrong.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (models.User, error) {
	if login == "" || password == "" {
		return models.User{}, ErrMissingLogin
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	ok, err := security.VerifyPassword(password, user.PasswordDigest)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id int) (models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Update(ctx context.Context, id int, patch models.UserPatch) (models.User, error) {
	if patch.Empty() {
		return models.User{}, ErrEmptyUserPatch
	}
	if patch.Email != nil && !validEmail(*patch.Email) {
		return models.User{}, ErrInvalidEmail
	}

	user, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return models.User{}, err
	}

	// owned events carry the username through the join
	s.events.Invalidate(ctx)
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, id int) (models.User, error) {
	user, err := s.users.Delete(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	// the delete cascades into owned events
	s.events.Invalidate(ctx)
	s.log.Info().Int("user_id", id).Msg("user deleted")
	return user, nil
}

// validEmail requires exactly one @ with non-empty local and domain parts.
func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return false
	}
	return !strings.Contains(domain, "@")
}

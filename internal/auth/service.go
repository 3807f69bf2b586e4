package auth

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/booklogapp/booklog/internal/apperrors"
	"github.com/booklogapp/booklog/internal/config"
	"github.com/booklogapp/booklog/internal/database/users"
	"github.com/booklogapp/booklog/internal/entities"
)

// Validation patterns
var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

var (
	ErrUserNotFound       = apperrors.NotFound("USER_001", "user not found")
	ErrDuplicateUser      = apperrors.Conflict("USER_002", "username or email is already taken")
	ErrInvalidUsername    = apperrors.Validation("USER_004", "username must be 3-64 characters, alphanumeric and underscore/hyphen only")
	ErrInvalidEmail       = apperrors.Validation("USER_005", "invalid email format")
	ErrInvalidCredentials = apperrors.Forbidden("AUTH_003", "email or password is incorrect")
)

// AuthResult is a successful registration or login: the user plus a signed
// access token.
type AuthResult struct {
	User        *entities.User
	AccessToken string
	ExpiresAt   time.Time
}

// Service handles registration, login and token issuance.
type Service struct {
	users  *users.Repository
	issuer *TokenIssuer
	config config.Auth
}

// NewService creates an auth service.
func NewService(usersRepo *users.Repository, issuer *TokenIssuer, cfg config.Auth) *Service {
	return &Service{
		users:  usersRepo,
		issuer: issuer,
		config: cfg,
	}
}

// Register creates a new account and issues a token. Duplicate usernames
// and emails fail with Conflict, backed by unique indexes so concurrent
// registrations cannot both win.
func (s *Service) Register(username, email, password string) (*AuthResult, error) {
	if !usernamePattern.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	// RFC 5321 caps addresses at 254 characters
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	// Pre-checks give a clean Conflict; the unique indexes backstop races.
	if existing, err := s.users.FindByUsername(username); err != nil {
		return nil, fmt.Errorf("look up username: %w", err)
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}
	if existing, err := s.users.FindByEmail(email); err != nil {
		return nil, fmt.Errorf("look up email: %w", err)
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}

	passwordHash, err := HashPassword(password, s.bcryptCost())
	if err != nil {
		if errors.Is(err, ErrPasswordTooShort) || errors.Is(err, ErrPasswordTooLong) {
			return nil, apperrors.Validation("USER_006", err.Error())
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}

	err = s.users.Create(user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrDuplicateUser
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueFor(user)
}

// Login verifies credentials and issues a token. Unknown emails and wrong
// passwords fail identically so the response does not leak which one it was.
func (s *Service) Login(email, password string) (*AuthResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("look up user by email: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("check password: %w", err)
	}

	return s.issueFor(user)
}

// GetUserByID retrieves a user, failing with NotFound when absent.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *Service) issueFor(user *entities.User) (*AuthResult, error) {
	now := time.Now()
	token, err := s.issuer.Issue(user.ID, now)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		User:        user,
		AccessToken: token,
		ExpiresAt:   now.Add(s.tokenExpiry()),
	}, nil
}

func (s *Service) bcryptCost() int {
	if s.config.BcryptCost == 0 {
		return 12
	}
	return s.config.BcryptCost
}

func (s *Service) tokenExpiry() time.Duration {
	if s.config.TokenExpiry == 0 {
		return 24 * time.Hour
	}
	return s.config.TokenExpiry
}

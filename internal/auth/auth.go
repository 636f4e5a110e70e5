package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atriumcrm/atrium/internal/user"
)

var (
	// ErrInvalidCredentials signals wrong email or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrWeakPassword signals the password doesn't meet requirements.
	ErrWeakPassword = errors.New("auth: password must be at least 8 characters")
	// ErrInactiveUser signals a deactivated account.
	ErrInactiveUser = errors.New("auth: user account is deactivated")
)

// UserStore is the slice of the user store the auth service depends on.
type UserStore interface {
	Create(ctx context.Context, in user.CreateUserInput) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// Service handles registration, login and token verification.
type Service struct {
	users     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// LoginResult bundles the token and user returned after a successful login.
type LoginResult struct {
	Token string
	User  *user.User
}

// NewService creates an authentication service.
func NewService(users UserStore, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, in user.CreateUserInput) (*user.User, error) {
	if len(in.Password) < 8 {
		return nil, ErrWeakPassword
	}
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("auth: email and name are required")
	}
	return s.users.Create(ctx, in)
}

// Login authenticates a user and returns a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !user.CheckPassword(u, password) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return LoginResult{}, ErrInactiveUser
	}

	token, err := s.generateToken(u.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("auth: generate token: %w", err)
	}

	return LoginResult{Token: token, User: u}, nil
}

// VerifyToken validates a JWT and returns the user ID it was issued for.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("auth: invalid user_id in token")
	}
	return userID, nil
}

// GetUser retrieves the full user record for a verified token subject.
func (s *Service) GetUser(ctx context.Context, userID string) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(s.tokenTTL).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

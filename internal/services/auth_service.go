package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/pkg/crypto"
	jwtpkg "github.com/imageshare/backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type AuthService struct {
	userService *UserService
	redis       *redis.Client
	cfg         *config.Config
}

// NewAuthService creates the session authority. redis may be nil, in which
// case logout cannot revoke tokens before they expire.
func NewAuthService(userService *UserService, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		userService: userService,
		redis:       redis,
		cfg:         cfg,
	}
}

// Login authenticates a user and returns a session token
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.userService.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !crypto.CheckPassword(password, user.Password) {
		return "", nil, ErrInvalidCredentials
	}

	// Check if user is active
	if !user.Active {
		return "", nil, ErrAccountInactive
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// IssueToken signs a session token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	return jwtpkg.GenerateToken(user.ID.String(), user.Username, jwtpkg.SessionToken, s.cfg.JWTSecret, s.cfg.SessionDuration)
}

// Register creates a new account in the User role
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	var user *models.User
	err := s.userService.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userService.WithDB(tx)
		created, err := users.CreateUser(ctx, email, email, password)
		if err != nil {
			return err
		}
		if err := users.AddToRole(ctx, created, models.RoleUser); err != nil {
			return fmt.Errorf("failed to assign role: %w", err)
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := jwtpkg.ValidateTokenOfType(token, s.cfg.JWTSecret, jwtpkg.SessionToken)
	if err != nil {
		return nil // nothing to revoke
	}
	if s.redis == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, revokedKey(claims.ID), "1", ttl).Err()
}

// CurrentUser resolves a session token to its user. It returns
// ErrInvalidSession for missing, malformed, expired or revoked tokens and
// ErrUserNotFound when the account no longer exists or was deactivated.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	claims, err := jwtpkg.ValidateTokenOfType(token, s.cfg.JWTSecret, jwtpkg.SessionToken)
	if err != nil || claims.Username == "" {
		return nil, ErrInvalidSession
	}

	// If redis is down, we allow the request to proceed
	if s.redis != nil {
		exists, err := s.redis.Exists(ctx, revokedKey(claims.ID)).Result()
		if err != nil {
			log.Printf("[Auth] WARN: Could not reach Redis to check revoked sessions: %v", err)
		} else if exists > 0 {
			return nil, ErrInvalidSession
		}
	}

	user, err := s.userService.FindByUsername(ctx, claims.Username)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("revoked:session:%s", tokenID)
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"github.com/imageshare/backend/pkg/crypto"
	"gorm.io/gorm"
)

// UserService is the identity store: accounts, password credentials and roles.
type UserService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewUserService(db *gorm.DB, cfg *config.Config) *UserService {
	return &UserService{db: db, cfg: cfg}
}

// WithDB returns a copy bound to db, typically a transaction.
func (s *UserService) WithDB(db *gorm.DB) *UserService {
	return &UserService{db: db, cfg: s.cfg}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves a user by username (exact match)
func (s *UserService) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ActiveUsers returns the users that can be picked in user selection lists.
func (s *UserService) ActiveUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Where("active = ?", true).Order("username ASC").Find(&users).Error
	return users, err
}

// CreateUser creates an active account with a hashed password.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashedPassword,
		Active:   true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// SetActive activates or deactivates an account. Accounts are never hard-deleted.
func (s *UserService) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindRole retrieves a role by name
func (s *UserService) FindRole(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}
	return &role, nil
}

// CreateRole creates the role unless it already exists.
func (s *UserService) CreateRole(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.FindRole(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}
	role = &models.Role{Name: name}
	if err := s.db.WithContext(ctx).Create(role).Error; err != nil {
		return nil, err
	}
	return role, nil
}

// AddToRole assigns an existing role to the user.
func (s *UserService) AddToRole(ctx context.Context, user *models.User, roleName string) error {
	role, err := s.FindRole(ctx, roleName)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(user).Association("Roles").Append(role)
}

// Roles returns the names of the roles assigned to the user.
func (s *UserService) Roles(ctx context.Context, user *models.User) ([]string, error) {
	var roles []models.Role
	if err := s.db.WithContext(ctx).Model(user).Association("Roles").Find(&roles); err != nil {
		return nil, err
	}
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = r.Name
	}
	return names, nil
}

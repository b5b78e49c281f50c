package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"gorm.io/gorm"
)

// DemoAccount is a seeded login. The username is the email address.
type DemoAccount struct {
	Email    string
	Password string
	Role     string
}

var (
	SeedRoles = []string{models.RoleUser, models.RoleAdmin, models.RoleApprover}

	SeedAccounts = []DemoAccount{
		{Email: "jfk@example.org", Password: "jfk123", Role: models.RoleAdmin},
		{Email: "jake@example.org", Password: "jake123", Role: models.RoleAdmin},
		{Email: "nixon@example.org", Password: "nixon123", Role: models.RoleUser},
		{Email: "johnson@example.org", Password: "john123", Role: models.RoleApprover},
		{Email: "jerry@example.org", Password: "jerry123", Role: models.RoleApprover},
	}

	SeedTags = []string{"portrait", "architecture", "games", "show", "nature"}
)

// SeedService brings a fresh or existing database to its baseline content.
type SeedService struct {
	db          *gorm.DB
	cfg         *config.Config
	userService *UserService
	tagService  *TagService
}

func NewSeedService(db *gorm.DB, cfg *config.Config, userService *UserService, tagService *TagService) *SeedService {
	return &SeedService{db: db, cfg: cfg, userService: userService, tagService: tagService}
}

// Seed creates missing roles, demo accounts and tags, in that order. It is
// safe to run on every start. A failing item is logged and skipped; the
// failures are returned joined.
func (s *SeedService) Seed(ctx context.Context) error {
	var errs []error

	for _, role := range SeedRoles {
		log.Printf("[Seed] Adding role: %s", role)
		if _, err := s.userService.CreateRole(ctx, role); err != nil {
			log.Printf("[Seed] Failed to create %s role: %v", role, err)
			errs = append(errs, fmt.Errorf("role %s: %w", role, err))
		}
	}

	if s.cfg.SeedDemoAccounts {
		for _, acct := range SeedAccounts {
			log.Printf("[Seed] Adding user: %s", acct.Email)
			if err := s.createAccount(ctx, acct); err != nil {
				log.Printf("[Seed] Failed to create %s user: %v", acct.Email, err)
				errs = append(errs, fmt.Errorf("account %s: %w", acct.Email, err))
			}
		}
	}

	for _, name := range SeedTags {
		created, err := s.tagService.EnsureTag(ctx, name)
		if err != nil {
			log.Printf("[Seed] Failed to create tag %s: %v", name, err)
			errs = append(errs, fmt.Errorf("tag %s: %w", name, err))
			continue
		}
		if created {
			log.Printf("[Seed] Added tag: %s", name)
		}
	}

	return errors.Join(errs...)
}

// createAccount creates the account and assigns its role in one transaction,
// unless an account with that username already exists.
func (s *SeedService) createAccount(ctx context.Context, acct DemoAccount) error {
	if _, err := s.userService.FindByUsername(ctx, acct.Email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.userService.WithDB(tx)
		user, err := users.CreateUser(ctx, acct.Email, acct.Email, acct.Password)
		if err != nil {
			return err
		}
		return users.AddToRole(ctx, user, acct.Role)
	})
}

package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/imageshare/backend/internal/config"
	"github.com/imageshare/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:              "test",
		AppURL:           "http://localhost:8080",
		DBDriver:         "sqlite",
		JWTSecret:        "test-secret",
		SessionDuration:  time.Hour,
		SessionCookie:    "imageshare_session",
		WebRoot:          t.TempDir(),
		BcryptCost:       4,
		SeedDemoAccounts: true,
	}
}

type testEnv struct {
	cfg     *config.Config
	db      *gorm.DB
	users   *UserService
	tags    *TagService
	storage *StorageService
	images  *ImageService
	auth    *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig(t)
	db := setupTestDB(t)
	users := NewUserService(db, cfg)
	tags := NewTagService(db)
	storage := NewStorageService(cfg)
	env := &testEnv{
		cfg:     cfg,
		db:      db,
		users:   users,
		tags:    tags,
		storage: storage,
		images:  NewImageService(db, tags, users, storage, nil),
		auth:    NewAuthService(users, nil, cfg),
	}
	if err := NewSeedService(db, cfg, users, tags).Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return env
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := e.users.FindByUsername(context.Background(), username)
	if err != nil {
		t.Fatalf("find %s: %v", username, err)
	}
	return u
}

func (e *testEnv) tag(t *testing.T, name string) *models.Tag {
	t.Helper()
	tag, err := e.tags.FindTagByName(context.Background(), name)
	if err != nil {
		t.Fatalf("find tag %s: %v", name, err)
	}
	return tag
}

func (e *testEnv) upload(t *testing.T, owner *models.User, caption string, tag *models.Tag, data []byte) *models.Image {
	t.Helper()
	in := ImageInput{
		Caption:   caption,
		DateTaken: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		TagID:     tag.ID,
	}
	img, err := e.images.UploadImage(context.Background(), owner, in, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("upload %s: %v", caption, err)
	}
	return img
}

func TestSeedIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// second run must not duplicate anything
	if err := NewSeedService(env.db, env.cfg, env.users, env.tags).Seed(ctx); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var roles, users, tags int64
	env.db.Model(&models.Role{}).Count(&roles)
	env.db.Model(&models.User{}).Count(&users)
	env.db.Model(&models.Tag{}).Count(&tags)
	if roles != int64(len(SeedRoles)) {
		t.Fatalf("expected %d roles got %d", len(SeedRoles), roles)
	}
	if users != int64(len(SeedAccounts)) {
		t.Fatalf("expected %d users got %d", len(SeedAccounts), users)
	}
	if tags != int64(len(SeedTags)) {
		t.Fatalf("expected %d tags got %d", len(SeedTags), tags)
	}

	for _, name := range SeedTags {
		var n int64
		env.db.Model(&models.Tag{}).Where("name = ?", name).Count(&n)
		if n != 1 {
			t.Fatalf("expected exactly one tag %q got %d", name, n)
		}
	}

	jfk := env.user(t, "jfk@example.org")
	roleNames, err := env.users.Roles(ctx, jfk)
	if err != nil {
		t.Fatalf("roles: %v", err)
	}
	if len(roleNames) != 1 || roleNames[0] != models.RoleAdmin {
		t.Fatalf("expected jfk to be Admin only got %v", roleNames)
	}
}

func TestSeedWithoutDemoAccounts(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedDemoAccounts = false
	db := setupTestDB(t)
	users := NewUserService(db, cfg)
	if err := NewSeedService(db, cfg, users, NewTagService(db)).Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var n int64
	db.Model(&models.User{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no accounts got %d", n)
	}
}

func TestUploadStoresFileUnderImagesDir(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "nixon@example.org")
	data := []byte("\xff\xd8\xff\xe0 fake jpeg payload")

	img := env.upload(t, owner, "Sunset", env.tag(t, "nature"), data)
	if !img.Valid || !img.Approved {
		t.Fatalf("expected new image valid and approved: %+v", img)
	}

	got, err := os.ReadFile(models.ImageDataFile(env.cfg.WebRoot, img.ID))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("stored bytes differ from upload")
	}

	withOwner, err := env.images.FindImageWithOwner(context.Background(), img.ID)
	if err != nil || withOwner.User == nil || withOwner.Tag != nil {
		t.Fatalf("expected only the owner preloaded got %+v err=%v", withOwner, err)
	}

	loaded, err := env.images.FindImageWithRelations(context.Background(), img.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.User == nil || loaded.User.Username != owner.Username {
		t.Fatalf("expected owner %s got %+v", owner.Username, loaded.User)
	}
	if loaded.Tag == nil || loaded.Tag.Name != "nature" {
		t.Fatalf("expected tag nature got %+v", loaded.Tag)
	}
}

func TestUploadRejectsUnknownTag(t *testing.T) {
	env := newTestEnv(t)
	owner := env.user(t, "nixon@example.org")
	_, err := env.images.UploadImage(context.Background(), owner, ImageInput{Caption: "x", TagID: 999}, bytes.NewReader([]byte("x")))
	if !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound got %v", err)
	}
	var n int64
	env.db.Model(&models.Image{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected no image rows got %d", n)
	}
}

func TestOwnershipChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "nixon@example.org")
	other := env.user(t, "jake@example.org")
	img := env.upload(t, owner, "Mine", env.tag(t, "portrait"), []byte("data"))

	if _, err := env.images.OwnedImage(ctx, img.ID, other); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized got %v", err)
	}
	if _, err := env.images.OwnedImage(ctx, img.ID+100, owner); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound got %v", err)
	}

	in := ImageInput{Caption: "Hijacked", DateTaken: time.Now(), TagID: img.TagID}
	if _, err := env.images.UpdateImage(ctx, img.ID, other, in); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected update by non-owner to fail got %v", err)
	}
	if err := env.images.DeleteImage(ctx, img.ID, other); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected delete by non-owner to fail got %v", err)
	}

	reloaded, err := env.images.FindImage(ctx, img.ID)
	if err != nil || reloaded.Caption != "Mine" {
		t.Fatalf("expected image untouched got %+v err=%v", reloaded, err)
	}
}

func TestIsOwnerIsCaseSensitive(t *testing.T) {
	image := &models.Image{User: &models.User{Username: "nixon@example.org"}}
	if !IsOwner(image, &models.User{Username: "nixon@example.org"}) {
		t.Fatal("expected exact match to own the image")
	}
	if IsOwner(image, &models.User{Username: "Nixon@example.org"}) {
		t.Fatal("expected differently cased username not to own the image")
	}
	if IsOwner(image, nil) || IsOwner(&models.Image{User: &models.User{}}, &models.User{}) {
		t.Fatal("expected missing or empty usernames never to match")
	}
}

func TestUpdateImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "nixon@example.org")
	img := env.upload(t, owner, "Before", env.tag(t, "portrait"), []byte("data"))

	games := env.tag(t, "games")
	in := ImageInput{Caption: "After", Description: "edited", DateTaken: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), TagID: games.ID}
	updated, err := env.images.UpdateImage(ctx, img.ID, owner, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Caption != "After" || updated.Description != "edited" || updated.TagID != games.ID {
		t.Fatalf("unexpected update result %+v", updated)
	}
	if updated.Tag == nil || updated.Tag.Name != "games" {
		t.Fatalf("expected reloaded tag games got %+v", updated.Tag)
	}
}

func TestDeleteImageRemovesFile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "nixon@example.org")
	img := env.upload(t, owner, "Gone", env.tag(t, "show"), []byte("data"))

	if err := env.images.DeleteImage(ctx, img.ID, owner); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.images.FindImage(ctx, img.ID); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected row gone got %v", err)
	}
	if _, err := os.Stat(models.ImageDataFile(env.cfg.WebRoot, img.ID)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed got %v", err)
	}
}

func TestListingsOnlyIncludeValidApprovedImages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user(t, "nixon@example.org")
	nature := env.tag(t, "nature")

	listed := env.upload(t, owner, "Listed", nature, []byte("a"))
	unapproved := env.upload(t, owner, "Unapproved", nature, []byte("b"))
	invalid := env.upload(t, owner, "Invalid", nature, []byte("c"))
	env.db.Model(&models.Image{}).Where("id = ?", unapproved.ID).Update("approved", false)
	env.db.Model(&models.Image{}).Where("id = ?", invalid.ID).Update("valid", false)

	all, err := env.images.ApprovedImages(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	_, byUser, err := env.images.ApprovedImagesByUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	_, byTag, err := env.images.ApprovedImagesByTag(ctx, nature.ID)
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}

	for name, images := range map[string][]models.Image{"all": all, "user": byUser, "tag": byTag} {
		if len(images) != 1 || images[0].ID != listed.ID {
			t.Fatalf("%s: expected only image %d got %+v", name, listed.ID, images)
		}
		if images[0].User == nil || images[0].Tag == nil {
			t.Fatalf("%s: expected owner and tag resolved", name)
		}
	}
}

func TestListingsUnknownOwnerOrTag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	if _, _, err := env.images.ApprovedImagesByTag(ctx, 999); !errors.Is(err, ErrTagNotFound) {
		t.Fatalf("expected ErrTagNotFound got %v", err)
	}
	if _, _, err := env.images.ApprovedImagesByUser(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound got %v", err)
	}
	if _, _, err := env.images.ApprovedImagesByUser(ctx, env.user(t, "jfk@example.org").ID); err != nil {
		t.Fatalf("expected empty listing for user without images got %v", err)
	}
}

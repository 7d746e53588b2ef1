package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"clipstream/internal/domain/entity"
	"clipstream/internal/domain/repository"
	"clipstream/internal/domain/service"
	"clipstream/internal/usecase"

	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository. Uniqueness of username and
// email is enforced atomically under the mutex, mirroring the database
// constraint the real implementation relies on.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User

	createCalls int
	updateCalls int

	findByIDErr error
	updateErr   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*entity.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findByIDErr != nil {
		return nil, r.findByIDErr
	}

	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *user

	return &clone, nil
}

func (r *fakeUserRepo) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			clone := *user

			return &clone, nil
		}
	}

	return nil, repository.ErrUserNotFound
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.createCalls++

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicateUser
		}
	}

	user.ID = uuid.New()
	clone := *user
	r.users[user.ID] = &clone

	return nil
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, id uuid.UUID, refreshToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.updateCalls++

	if r.updateErr != nil {
		return r.updateErr
	}

	user, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.RefreshToken = refreshToken

	return nil
}

// seed inserts a user directly, bypassing the flow under test.
func (r *fakeUserRepo) seed(user *entity.User) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	clone := *user
	r.users[user.ID] = &clone

	return user.ID
}

func (r *fakeUserRepo) get(id uuid.UUID) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil
	}
	clone := *user

	return &clone
}

func (r *fakeUserRepo) countByUsername(username string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, user := range r.users {
		if user.Username == username {
			count++
		}
	}

	return count
}

// fakeAssetStore records uploads and can be told to fail specific paths.
type fakeAssetStore struct {
	mu        sync.Mutex
	uploads   []string
	failPaths map[string]bool
}

func newFakeAssetStore() *fakeAssetStore {
	return &fakeAssetStore{failPaths: make(map[string]bool)}
}

func (s *fakeAssetStore) failOn(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPaths[path] = true
}

func (s *fakeAssetStore) Upload(_ context.Context, localPath string) (*service.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, localPath)

	if s.failPaths[localPath] {
		return nil, fmt.Errorf("upload of %s failed", localPath)
	}

	return &service.Asset{URL: "https://cdn.example.com/" + localPath}, nil
}

func (s *fakeAssetStore) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.uploads)
}

// fakeHasher avoids bcrypt cost in flow tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (fakeHasher) Check(password, hash string) bool {
	return hash == "hashed:"+password
}

// fakeTokenService issues deterministic, monotonically distinct tokens.
type fakeTokenService struct {
	mu      sync.Mutex
	counter int
	fail    bool
}

func (s *fakeTokenService) next(kind string, userID uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return "", fmt.Errorf("signing failed")
	}
	s.counter++

	return fmt.Sprintf("%s-%s-%d", kind, userID, s.counter), nil
}

func (s *fakeTokenService) GenerateAccessToken(userID uuid.UUID, _, _ string) (string, error) {
	return s.next("access", userID)
}

func (s *fakeTokenService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	return s.next("refresh", userID)
}

func (s *fakeTokenService) ValidateAccessToken(tokenString string) (*service.Claims, error) {
	if !strings.HasPrefix(tokenString, "access-") {
		return nil, fmt.Errorf("invalid token")
	}

	return &service.Claims{Type: service.TokenTypeAccess}, nil
}

func (s *fakeTokenService) ValidateRefreshToken(tokenString string) (*service.Claims, error) {
	if !strings.HasPrefix(tokenString, "refresh-") {
		return nil, fmt.Errorf("invalid token")
	}

	return &service.Claims{Type: service.TokenTypeRefresh}, nil
}

func (s *fakeTokenService) GetAccessTokenDuration() time.Duration  { return 15 * time.Minute }
func (s *fakeTokenService) GetRefreshTokenDuration() time.Duration { return 7 * 24 * time.Hour }

// userServiceFixtures holds all test dependencies for user service tests.
type userServiceFixtures struct {
	service    usecase.UserUsecase
	userRepo   *fakeUserRepo
	assetStore *fakeAssetStore
	tokenSvc   *fakeTokenService
}

func createTestUserService(t *testing.T) userServiceFixtures {
	t.Helper()

	userRepo := newFakeUserRepo()
	assetStore := newFakeAssetStore()
	tokenSvc := &fakeTokenService{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := NewUserService(UserServiceParams{
		UserRepo:   userRepo,
		Hasher:     fakeHasher{},
		TokenSvc:   tokenSvc,
		AssetStore: assetStore,
		Logger:     logger,
	})

	return userServiceFixtures{
		service:    service,
		userRepo:   userRepo,
		assetStore: assetStore,
		tokenSvc:   tokenSvc,
	}
}

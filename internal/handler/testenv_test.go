package handler

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/middleware"
	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/repository"
	"github.com/vasilyryabtsev/link-redirect-service/internal/service"
)

// memLinkRepo is an in-memory service.LinkRepository for handler tests.
type memLinkRepo struct {
	nextID  int64
	links   map[int64]models.Link
	pingErr error
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{links: make(map[int64]models.Link)}
}

func (m *memLinkRepo) GetLinkByURL(_ context.Context, originalURL string) (*models.Link, error) {
	for _, link := range m.links {
		if link.Link == originalURL {
			found := link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *memLinkRepo) GetLinkByCode(_ context.Context, code string) (*models.Link, error) {
	for _, link := range m.links {
		if link.Code == code && code != "" {
			found := link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (m *memLinkRepo) InsertLink(_ context.Context, originalURL, owner string, expiresAt *time.Time, now time.Time) (int64, error) {
	for _, link := range m.links {
		if link.Link == originalURL {
			return 0, repository.ErrURLTaken
		}
	}

	m.nextID++
	m.links[m.nextID] = models.Link{
		ID:        m.nextID,
		Owner:     owner,
		Link:      originalURL,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
	return m.nextID, nil
}

func (m *memLinkRepo) SetLinkCode(_ context.Context, id int64, code string, now time.Time) error {
	for otherID, link := range m.links {
		if otherID != id && link.Code == code {
			return repository.ErrCodeTaken
		}
	}

	link, ok := m.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.Code = code
	link.UpdatedAt = now
	m.links[id] = link
	return nil
}

func (m *memLinkRepo) IncrementUsage(_ context.Context, id int64, now time.Time) error {
	return m.addUsage(id, 1, now)
}

func (m *memLinkRepo) AddUsage(_ context.Context, id, delta int64, now time.Time) error {
	return m.addUsage(id, delta, now)
}

func (m *memLinkRepo) addUsage(id, delta int64, now time.Time) error {
	link, ok := m.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.UsageCount += delta
	link.UpdatedAt = now
	m.links[id] = link
	return nil
}

func (m *memLinkRepo) DeleteLink(_ context.Context, id int64) error {
	delete(m.links, id)
	return nil
}

func (m *memLinkRepo) SelectExpired(_ context.Context, now time.Time) ([]models.Link, error) {
	var expired []models.Link
	for _, link := range m.links {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
			expired = append(expired, link)
		}
	}
	return expired, nil
}

func (m *memLinkRepo) ArchiveLink(_ context.Context, link *models.Link, _ time.Time) error {
	delete(m.links, link.ID)
	return nil
}

func (m *memLinkRepo) RotateLink(ctx context.Context, old *models.Link, assignCode func(id int64) (string, error), now time.Time) (string, error) {
	delete(m.links, old.ID)

	m.nextID++
	id := m.nextID
	m.links[id] = models.Link{
		ID:        id,
		Owner:     old.Owner,
		Link:      old.Link,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: old.ExpiresAt,
	}

	code, err := assignCode(id)
	if err != nil {
		return "", err
	}

	return code, m.SetLinkCode(ctx, id, code, now)
}

func (m *memLinkRepo) Ping(_ context.Context) error {
	return m.pingErr
}

// memCache is an in-memory service.RedirectCache.
type memCache struct {
	entries map[string]string
	pending map[string]int64
	pingErr error
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[string]string),
		pending: make(map[string]int64),
	}
}

func (m *memCache) Lookup(_ context.Context, code string) (string, bool, error) {
	url, ok := m.entries[code]
	return url, ok, nil
}

func (m *memCache) Store(_ context.Context, code, originalURL string) error {
	m.entries[code] = originalURL
	return nil
}

func (m *memCache) Forget(_ context.Context, code string) error {
	delete(m.entries, code)
	return nil
}

func (m *memCache) RecordHit(_ context.Context, code string) error {
	m.pending[code]++
	return nil
}

func (m *memCache) PendingCounts(_ context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(m.pending))
	for code, count := range m.pending {
		counts[code] = count
	}
	return counts, nil
}

func (m *memCache) ClearPending(_ context.Context) error {
	m.pending = make(map[string]int64)
	return nil
}

func (m *memCache) Ping(_ context.Context) error {
	return m.pingErr
}

// memUserRepo is an in-memory service.UserRepository.
type memUserRepo struct {
	users map[string]models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]models.User)}
}

func (m *memUserRepo) CreateUser(_ context.Context, username, hashedPassword string) error {
	if _, exists := m.users[username]; exists {
		return repository.ErrUserExists
	}
	m.users[username] = models.User{
		ID:             int64(len(m.users) + 1),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	return nil
}

func (m *memUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	user, ok := m.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

// testEnv wires the full router on top of the in-memory fakes.
type testEnv struct {
	router *chi.Mux
	links  *service.LinkService
	auth   *service.AuthService
	repo   *memLinkRepo
	cache  *memCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()

	codes, err := service.NewCodeGenerator(3)
	require.NoError(t, err)

	repo := newMemLinkRepo()
	cache := newMemCache()

	links := service.NewLinkService(repo, cache, codes, time.UTC, logger)
	auth := service.NewAuthService(newMemUserRepo(), "test-secret-key", 30*time.Minute)
	authMW := middleware.NewAuthMiddleware(auth, logger)

	h := NewHandler(links, auth, authMW, "http://localhost:8080", logger)

	return &testEnv{
		router: h.SetupRouter(),
		links:  links,
		auth:   auth,
		repo:   repo,
		cache:  cache,
	}
}

// registerAndLogin creates an account and returns a usable bearer token.
func (e *testEnv) registerAndLogin(t *testing.T, username, password string) string {
	t.Helper()

	require.NoError(t, e.auth.Register(context.Background(), username, password))

	token, err := e.auth.Login(context.Background(), username, password)
	require.NoError(t, err)
	return token
}

// createLink shortens a URL directly through the service and returns the code.
func (e *testEnv) createLink(t *testing.T, originalURL, owner string) string {
	t.Helper()

	code, err := e.links.CreateShortLink(context.Background(), originalURL, nil, owner, "")
	require.NoError(t, err)
	return code
}

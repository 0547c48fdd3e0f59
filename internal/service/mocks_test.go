package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/repository"
)

// fakeLinkRepo mimics the Postgres repository, including its unique
// constraints on link and code.
type fakeLinkRepo struct {
	mu       sync.Mutex
	nextID   int64
	links    map[int64]models.Link
	archived []models.ArchivedLink

	insertCalls     int
	failArchiveCode string
	pingErr         error
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: make(map[int64]models.Link)}
}

func (f *fakeLinkRepo) GetLinkByURL(_ context.Context, originalURL string) (*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.Link == originalURL {
			found := link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkRepo) GetLinkByCode(_ context.Context, code string) (*models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.Code == code && code != "" {
			found := link
			return &found, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkRepo) InsertLink(_ context.Context, originalURL, owner string, expiresAt *time.Time, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++

	for _, link := range f.links {
		if link.Link == originalURL {
			return 0, repository.ErrURLTaken
		}
	}

	f.nextID++
	f.links[f.nextID] = models.Link{
		ID:        f.nextID,
		Owner:     owner,
		Link:      originalURL,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: expiresAt,
	}
	return f.nextID, nil
}

func (f *fakeLinkRepo) SetLinkCode(_ context.Context, id int64, code string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for otherID, link := range f.links {
		if otherID != id && link.Code == code {
			return repository.ErrCodeTaken
		}
	}

	link, ok := f.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.Code = code
	link.UpdatedAt = now
	f.links[id] = link
	return nil
}

func (f *fakeLinkRepo) IncrementUsage(_ context.Context, id int64, now time.Time) error {
	return f.addUsage(id, 1, now)
}

func (f *fakeLinkRepo) AddUsage(_ context.Context, id, delta int64, now time.Time) error {
	return f.addUsage(id, delta, now)
}

func (f *fakeLinkRepo) addUsage(id, delta int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	link, ok := f.links[id]
	if !ok {
		return repository.ErrLinkNotFound
	}
	link.UsageCount += delta
	link.UpdatedAt = now
	f.links[id] = link
	return nil
}

func (f *fakeLinkRepo) DeleteLink(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.links, id)
	return nil
}

func (f *fakeLinkRepo) SelectExpired(_ context.Context, now time.Time) ([]models.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var expired []models.Link
	for _, link := range f.links {
		if link.ExpiresAt != nil && link.ExpiresAt.Before(now) {
			expired = append(expired, link)
		}
	}
	return expired, nil
}

func (f *fakeLinkRepo) ArchiveLink(_ context.Context, link *models.Link, deletedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failArchiveCode != "" && link.Code == f.failArchiveCode {
		return fmt.Errorf("archive failure injected for %s", link.Code)
	}

	f.archived = append(f.archived, models.ArchivedLink{
		ID:         int64(len(f.archived) + 1),
		Owner:      link.Owner,
		Link:       link.Link,
		Code:       link.Code,
		CreatedAt:  link.CreatedAt,
		DeletedAt:  deletedAt,
		UsageCount: link.UsageCount,
	})
	delete(f.links, link.ID)
	return nil
}

func (f *fakeLinkRepo) RotateLink(ctx context.Context, old *models.Link, assignCode func(id int64) (string, error), now time.Time) (string, error) {
	f.mu.Lock()
	delete(f.links, old.ID)
	f.nextID++
	id := f.nextID
	f.links[id] = models.Link{
		ID:        id,
		Owner:     old.Owner,
		Link:      old.Link,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: old.ExpiresAt,
	}
	f.mu.Unlock()

	code, err := assignCode(id)
	if err != nil {
		return "", err
	}

	return code, f.SetLinkCode(ctx, id, code, now)
}

func (f *fakeLinkRepo) Ping(_ context.Context) error {
	return f.pingErr
}

func (f *fakeLinkRepo) linkByCode(code string) (models.Link, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.Code == code {
			return link, true
		}
	}
	return models.Link{}, false
}

func (f *fakeLinkRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

// fakeCache is an in-memory stand-in for the Redis redirect cache. TTL is
// not modelled; entries live until Forget.
type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
	pending map[string]int64

	storeCalls int
	pingErr    error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		entries: make(map[string]string),
		pending: make(map[string]int64),
	}
}

func (f *fakeCache) Lookup(_ context.Context, code string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	url, ok := f.entries[code]
	return url, ok, nil
}

func (f *fakeCache) Store(_ context.Context, code, originalURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.storeCalls++
	f.entries[code] = originalURL
	return nil
}

func (f *fakeCache) Forget(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, code)
	return nil
}

func (f *fakeCache) RecordHit(_ context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending[code]++
	return nil
}

func (f *fakeCache) PendingCounts(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int64, len(f.pending))
	for code, count := range f.pending {
		counts[code] = count
	}
	return counts, nil
}

func (f *fakeCache) ClearPending(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = make(map[string]int64)
	return nil
}

func (f *fakeCache) Ping(_ context.Context) error {
	return f.pingErr
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]models.User)}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, username, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.users[username]; exists {
		return repository.ErrUserExists
	}
	f.users[username] = models.User{
		ID:             int64(len(f.users) + 1),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	return nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[username]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &user, nil
}

func (f *fakeUserRepo) disable(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user := f.users[username]
	user.Disabled = true
	f.users[username] = user
}

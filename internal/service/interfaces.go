package service

import (
	"context"
	"time"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
)

// LinkRepository is the durable link store consumed by the lifecycle
// manager and the reconciler.
type LinkRepository interface {
	GetLinkByURL(ctx context.Context, originalURL string) (*models.Link, error)
	GetLinkByCode(ctx context.Context, code string) (*models.Link, error)
	InsertLink(ctx context.Context, originalURL, owner string, expiresAt *time.Time, now time.Time) (int64, error)
	SetLinkCode(ctx context.Context, id int64, code string, now time.Time) error
	IncrementUsage(ctx context.Context, id int64, now time.Time) error
	AddUsage(ctx context.Context, id, delta int64, now time.Time) error
	DeleteLink(ctx context.Context, id int64) error
	SelectExpired(ctx context.Context, now time.Time) ([]models.Link, error)
	ArchiveLink(ctx context.Context, link *models.Link, deletedAt time.Time) error
	RotateLink(ctx context.Context, old *models.Link, assignCode func(id int64) (string, error), now time.Time) (string, error)
	Ping(ctx context.Context) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, hashedPassword string) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// RedirectCache is the fast code→URL lookup plus the pending-hit counter
// drained by the stats flush.
type RedirectCache interface {
	Lookup(ctx context.Context, code string) (string, bool, error)
	Store(ctx context.Context, code, originalURL string) error
	Forget(ctx context.Context, code string) error
	RecordHit(ctx context.Context, code string) error
	PendingCounts(ctx context.Context) (map[string]int64, error)
	ClearPending(ctx context.Context) error
	Ping(ctx context.Context) error
}

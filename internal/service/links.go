package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/models"
	"github.com/vasilyryabtsev/link-redirect-service/internal/repository"
)

// LinkService orchestrates the link lifecycle: creation with code
// assignment, redirect resolution through the cache, and ownership-gated
// delete and rotate.
type LinkService struct {
	repo     LinkRepository
	cache    RedirectCache
	codes    *CodeGenerator
	location *time.Location
	logger   *zap.Logger
}

func NewLinkService(repo LinkRepository, cache RedirectCache, codes *CodeGenerator, location *time.Location, logger *zap.Logger) *LinkService {
	return &LinkService{
		repo:     repo,
		cache:    cache,
		codes:    codes,
		location: location,
		logger:   logger,
	}
}

func (s *LinkService) now() time.Time {
	return time.Now().In(s.location)
}

// CreateShortLink shortens a URL. When the URL already has an active link
// the existing code is returned together with ErrLinkExists instead of
// creating a duplicate. A non-empty alias is used verbatim as the code and
// must not collide with another active link.
func (s *LinkService) CreateShortLink(ctx context.Context, originalURL string, expiresAt *time.Time, owner, alias string) (string, error) {
	existing, err := s.repo.GetLinkByURL(ctx, originalURL)
	if err == nil {
		return existing.Code, ErrLinkExists
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return "", fmt.Errorf("check existing url: %w", err)
	}

	// Advisory pre-check; the unique index on code is the real arbiter.
	if alias != "" {
		if _, err := s.repo.GetLinkByCode(ctx, alias); err == nil {
			return "", ErrAliasTaken
		} else if !errors.Is(err, repository.ErrLinkNotFound) {
			return "", fmt.Errorf("check alias: %w", err)
		}
	}

	now := s.now()

	id, err := s.repo.InsertLink(ctx, originalURL, owner, expiresAt, now)
	if err != nil {
		if errors.Is(err, repository.ErrURLTaken) {
			// Lost a race with a concurrent create for the same URL.
			winner, lookupErr := s.repo.GetLinkByURL(ctx, originalURL)
			if lookupErr == nil {
				return winner.Code, ErrLinkExists
			}
			return "", fmt.Errorf("lookup conflicting url: %w", lookupErr)
		}
		return "", fmt.Errorf("insert link: %w", err)
	}

	code := alias
	if code == "" {
		code, err = s.codes.Code(id)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
	}

	if err := s.repo.SetLinkCode(ctx, id, code, now); err != nil {
		if errors.Is(err, repository.ErrCodeTaken) {
			// Remove the half-created row so a failed request leaves the
			// store unchanged.
			if delErr := s.repo.DeleteLink(ctx, id); delErr != nil {
				s.logger.Error("Failed to clean up link after code conflict",
					zap.Int64("id", id),
					zap.Error(delErr))
			}
			if alias != "" {
				return "", ErrAliasTaken
			}
			// A generated code colliding with an existing alias is a store
			// anomaly, not the caller's conflict.
			return "", fmt.Errorf("generated code %q already in use: %w", code, err)
		}
		return "", fmt.Errorf("assign code: %w", err)
	}

	return code, nil
}

// Resolve returns the target URL for a code. On a cache hit the redirect is
// only recorded in the pending counter; the store catches up at the next
// stats flush. On a miss the store is read, the cache populated and the
// stored count updated synchronously.
func (s *LinkService) Resolve(ctx context.Context, code string) (string, error) {
	target, hit, err := s.cache.Lookup(ctx, code)
	if err != nil {
		s.logger.Warn("Redirect cache lookup failed, falling back to store",
			zap.String("code", code),
			zap.Error(err))
	}
	if hit {
		if err := s.cache.RecordHit(ctx, code); err != nil {
			s.logger.Warn("Failed to buffer redirect hit",
				zap.String("code", code),
				zap.Error(err))
		}
		return target, nil
	}

	link, err := s.repo.GetLinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("lookup link: %w", err)
	}

	if err := s.cache.Store(ctx, code, link.Link); err != nil {
		s.logger.Warn("Failed to populate redirect cache",
			zap.String("code", code),
			zap.Error(err))
	}

	if err := s.repo.IncrementUsage(ctx, link.ID, s.now()); err != nil {
		return "", fmt.Errorf("update usage count: %w", err)
	}

	return link.Link, nil
}

// Stats returns the stored metadata for a code. Hits buffered in the cache
// since the last flush are not included.
func (s *LinkService) Stats(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.repo.GetLinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("lookup link: %w", err)
	}
	return link, nil
}

// Search finds the active link for an original URL.
func (s *LinkService) Search(ctx context.Context, originalURL string) (*models.Link, error) {
	link, err := s.repo.GetLinkByURL(ctx, originalURL)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("lookup link by url: %w", err)
	}
	return link, nil
}

// Delete removes a link owned by caller. No archive entry is written; only
// the expiry sweep archives links.
func (s *LinkService) Delete(ctx context.Context, code, caller string) error {
	link, err := s.fetchOwned(ctx, code, caller)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteLink(ctx, link.ID); err != nil {
		return fmt.Errorf("delete link: %w", err)
	}

	if err := s.cache.Forget(ctx, code); err != nil {
		s.logger.Warn("Failed to invalidate cache entry for deleted link",
			zap.String("code", code),
			zap.Error(err))
	}

	return nil
}

// Rotate replaces the link's code with a freshly generated one. The old
// code stops working immediately. Delete and recreate run in a single store
// transaction so the link cannot be lost between the two steps.
func (s *LinkService) Rotate(ctx context.Context, code, caller string) (string, error) {
	link, err := s.fetchOwned(ctx, code, caller)
	if err != nil {
		return "", err
	}

	newCode, err := s.repo.RotateLink(ctx, link, s.codes.Code, s.now())
	if err != nil {
		return "", fmt.Errorf("rotate link: %w", err)
	}

	if err := s.cache.Forget(ctx, code); err != nil {
		s.logger.Warn("Failed to invalidate cache entry for rotated link",
			zap.String("code", code),
			zap.Error(err))
	}

	return newCode, nil
}

// Ping verifies both backing stores are reachable.
func (s *LinkService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("ping cache: %w", err)
	}
	return nil
}

func (s *LinkService) fetchOwned(ctx context.Context, code, caller string) (*models.Link, error) {
	link, err := s.repo.GetLinkByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("lookup link: %w", err)
	}

	if link.Owner != caller {
		return nil, ErrNotOwner
	}

	return link, nil
}

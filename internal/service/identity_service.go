package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"photoshare/internal/cache"
	apperrors "photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/repository"
)

// IdentityService resolves user snapshots through the shared cache.
type IdentityService interface {
	LookupByName(ctx context.Context, userName string) (*model.UserSnapshot, error)
	LookupByID(ctx context.Context, id uint) (*model.UserSnapshot, error)
}

type identityService struct {
	repo  repository.UserRepository
	cache *cache.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// NewIdentityService builds an IdentityService. ttl applies to both the
// user:<name> and user:<id> entries.
func NewIdentityService(repo repository.UserRepository, c *cache.Client, ttl time.Duration, log zerolog.Logger) IdentityService {
	return &identityService{
		repo:  repo,
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "identity").Logger(),
	}
}

// LookupByName returns the snapshot of the named user. Misses are not cached
// so a name that was free a moment ago resolves as soon as it is taken.
func (s *identityService) LookupByName(ctx context.Context, userName string) (*model.UserSnapshot, error) {
	user, err := cache.GetOrLoad(ctx, s.cache, cache.Entry[model.UserSnapshot]{
		Kind: cache.KindUserByName,
		Key:  cache.UserNameKey(userName),
		TTL:  s.ttl,
		// user:<name> and user:<id> share a namespace, so a user named "7"
		// collides with the user whose id is 7.
		Accept: func(u *model.UserSnapshot) bool { return u.UserName == userName },
	}, func(ctx context.Context) (*model.UserSnapshot, error) {
		return snapshotOrAbsent(s.repo.FindByUserName(ctx, userName))
	})
	if err != nil {
		return nil, fmt.Errorf("lookup user %q: %w", userName, err)
	}
	if user == nil {
		s.log.Debug().Str("user_name", userName).Msg("user not found")
		return nil, apperrors.ErrIdentityNotFound
	}
	return user, nil
}

// LookupByID returns the snapshot of the user with the given id.
func (s *identityService) LookupByID(ctx context.Context, id uint) (*model.UserSnapshot, error) {
	user, err := cache.GetOrLoad(ctx, s.cache, cache.Entry[model.UserSnapshot]{
		Kind:   cache.KindUserByID,
		Key:    cache.UserIDKey(id),
		TTL:    s.ttl,
		Accept: func(u *model.UserSnapshot) bool { return u.ID == id },
	}, func(ctx context.Context) (*model.UserSnapshot, error) {
		return snapshotOrAbsent(s.repo.FindByID(ctx, id))
	})
	if err != nil {
		return nil, fmt.Errorf("lookup user %d: %w", id, err)
	}
	if user == nil {
		s.log.Debug().Uint("user_id", id).Msg("user not found")
		return nil, apperrors.ErrIdentityNotFound
	}
	return user, nil
}

func snapshotOrAbsent(user *model.User, err error) (*model.UserSnapshot, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Snapshot(), nil
}

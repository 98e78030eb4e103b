package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/cache"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/internal/store"
	"github.com/Rohan-134v/Streamvibe/pkg/log"
	"golang.org/x/sync/singleflight"
)

type commentServiceImpl struct {
	rooms    store.RoomStore
	cache    cache.CommentCache
	cacheTTL time.Duration
	sf       singleflight.Group
}

// NewCommentService creates a CommentService. commentCache may be nil, in
// which case every read goes to the store.
func NewCommentService(
	rooms store.RoomStore,
	commentCache cache.CommentCache,
	cacheTTL time.Duration,
) CommentService {
	return &commentServiceImpl{
		rooms:    rooms,
		cache:    commentCache,
		cacheTTL: cacheTTL,
	}
}

func (s *commentServiceImpl) AppendComment(ctx context.Context, comment domain.Comment) error {
	if err := s.rooms.AppendComment(ctx, comment); err != nil {
		return fmt.Errorf("append comment to room %s: %w", comment.RoomID, err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, comment.RoomID); err != nil {
			l := log.Ctx(ctx)
			l.Warn().Err(err).Str(log.FieldRoomID, comment.RoomID).Msg("cache invalidate error")
		}
	}
	return nil
}

func (s *commentServiceImpl) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	if s.cache == nil {
		return s.rooms.ListComments(ctx, roomID)
	}

	// Collapse concurrent misses for the same room into one store read
	result, err, _ := s.sf.Do(roomID, func() (interface{}, error) {
		return s.fetchWithCache(ctx, roomID)
	})
	if err != nil {
		return nil, err
	}

	comments, ok := result.([]domain.Comment)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from singleflight")
	}
	return comments, nil
}

func (s *commentServiceImpl) fetchWithCache(ctx context.Context, roomID string) ([]domain.Comment, error) {
	cached, err := s.cache.Get(ctx, roomID)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		// Log error but continue to fetch from the store
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("cache get error")
	}

	comments, err := s.rooms.ListComments(ctx, roomID)
	if err != nil {
		return nil, err
	}

	// Store in cache (async to avoid blocking response)
	go func() {
		cacheCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.cache.Set(cacheCtx, roomID, comments, s.cacheTTL); err != nil {
			l := log.L()
			l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("cache set error")
		}
	}()

	return comments, nil
}

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// CommentCache caches a room's full comment log.
type CommentCache interface {
	Get(ctx context.Context, roomID string) ([]domain.Comment, error)
	Set(ctx context.Context, roomID string, comments []domain.Comment, ttl time.Duration) error
	Invalidate(ctx context.Context, roomID string) error
	Close() error
}

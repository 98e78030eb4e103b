package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/config"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/gocql/gocql"
)

var cassandraSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms_by_id (
		room_id text PRIMARY KEY,
		created_at timestamp
	)`,
	`CREATE TABLE IF NOT EXISTS comments_by_room (
		room_id text,
		comment_id text,
		viewer_id text,
		message text,
		created_at timestamp,
		PRIMARY KEY (room_id, comment_id)
	) WITH CLUSTERING ORDER BY (comment_id ASC)`,
}

// CassandraRoomStore implements RoomStore on Cassandra. Comments cluster
// by their ULID, so partition order is chronological.
type CassandraRoomStore struct {
	session *gocql.Session
}

func NewCassandraRoomStore(cfg config.CassandraConfig) (*CassandraRoomStore, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.ConnectTimeout = cfg.ConnectTimeout
	cluster.Timeout = cfg.Timeout
	cluster.Consistency = parseConsistency(cfg.Consistency)

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create cassandra session: %w", err)
	}

	for _, stmt := range cassandraSchema {
		if err := session.Query(stmt).Exec(); err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to create cassandra schema: %w", err)
		}
	}

	return &CassandraRoomStore{session: session}, nil
}

func parseConsistency(s string) gocql.Consistency {
	switch s {
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum
	case "ONE":
		return gocql.One
	case "QUORUM":
		return gocql.Quorum
	default:
		return gocql.LocalOne
	}
}

func (r *CassandraRoomStore) FindRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var createdAt time.Time
	err := r.session.Query(
		`SELECT created_at FROM rooms_by_id WHERE room_id = ?`, roomID,
	).WithContext(ctx).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &domain.Room{RoomID: roomID, CreatedAt: createdAt}, nil
}

func (r *CassandraRoomStore) CreateRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	now := time.Now().UTC()
	existing := map[string]interface{}{}
	applied, err := r.session.Query(
		`INSERT INTO rooms_by_id (room_id, created_at) VALUES (?, ?) IF NOT EXISTS`, roomID, now,
	).WithContext(ctx).MapScanCAS(existing)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if !applied {
		return nil, ErrRoomExists
	}
	return &domain.Room{RoomID: roomID, CreatedAt: now}, nil
}

func (r *CassandraRoomStore) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	return ensureRoom(ctx, r, roomID)
}

func (r *CassandraRoomStore) AppendComment(ctx context.Context, comment domain.Comment) error {
	if _, err := r.FindRoom(ctx, comment.RoomID); err != nil {
		return err
	}

	err := r.session.Query(
		`INSERT INTO comments_by_room (room_id, comment_id, viewer_id, message, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.RoomID, comment.CommentID, comment.ViewerID, comment.Message, comment.Timestamp,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (r *CassandraRoomStore) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	if _, err := r.FindRoom(ctx, roomID); err != nil {
		return nil, err
	}

	iter := r.session.Query(
		`SELECT comment_id, viewer_id, message, created_at FROM comments_by_room WHERE room_id = ?`, roomID,
	).WithContext(ctx).Iter()

	comments := make([]domain.Comment, 0)
	var c domain.Comment
	for iter.Scan(&c.CommentID, &c.ViewerID, &c.Message, &c.Timestamp) {
		c.RoomID = roomID
		comments = append(comments, c)
		c = domain.Comment{}
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}
	return comments, nil
}

func (r *CassandraRoomStore) Close() error {
	r.session.Close()
	return nil
}

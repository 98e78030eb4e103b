package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/Rohan-134v/Streamvibe/pkg/database"
	"github.com/Rohan-134v/Streamvibe/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomModel is the GORM model for the rooms table.
type RoomModel struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (RoomModel) TableName() string {
	return "rooms"
}

// CommentModel is the GORM model for the room_comments table.
type CommentModel struct {
	ID        uint      `gorm:"primaryKey"`
	CommentID string    `gorm:"type:varchar(26);uniqueIndex;not null"`
	RoomID    string    `gorm:"type:varchar(255);index:idx_room_comments_room_ts,priority:1;not null"`
	ViewerID  string    `gorm:"type:varchar(255);not null"`
	Message   string    `gorm:"type:text"`
	SentAt    time.Time `gorm:"index:idx_room_comments_room_ts,priority:2;not null"`
}

func (CommentModel) TableName() string {
	return "room_comments"
}

func (m *RoomModel) toDomain() *domain.Room {
	return &domain.Room{RoomID: m.RoomID, CreatedAt: m.CreatedAt}
}

func (m *CommentModel) toDomain() domain.Comment {
	return domain.Comment{
		CommentID: m.CommentID,
		RoomID:    m.RoomID,
		ViewerID:  m.ViewerID,
		Message:   m.Message,
		Timestamp: m.SentAt,
	}
}

// GormRoomStore implements RoomStore on postgres, mysql or sqlite.
type GormRoomStore struct {
	db *gorm.DB
}

// NewGormRoomStore opens the database and migrates the room tables.
func NewGormRoomStore(cfg *database.Config) (*GormRoomStore, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}
	return NewGormRoomStoreWithDB(db)
}

// NewGormRoomStoreWithDB wraps an open connection and migrates the room tables.
func NewGormRoomStoreWithDB(db *gorm.DB) (*GormRoomStore, error) {
	if err := database.AutoMigrate(db, &RoomModel{}, &CommentModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate room tables: %w", err)
	}
	return &GormRoomStore{db: db}, nil
}

func (s *GormRoomStore) FindRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var model RoomModel
	result := s.db.WithContext(ctx).First(&model, "room_id = ?", roomID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to get room")
		return nil, result.Error
	}
	return model.toDomain(), nil
}

func (s *GormRoomStore) CreateRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	model := &RoomModel{RoomID: roomID}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "room_id"}}, DoNothing: true}).
		Create(model)
	if result.Error != nil {
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldRoomID, roomID).Msg("failed to create room")
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrRoomExists
	}
	return model.toDomain(), nil
}

func (s *GormRoomStore) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	return ensureRoom(ctx, s, roomID)
}

func (s *GormRoomStore) AppendComment(ctx context.Context, comment domain.Comment) error {
	if _, err := s.FindRoom(ctx, comment.RoomID); err != nil {
		return err
	}

	model := &CommentModel{
		CommentID: comment.CommentID,
		RoomID:    comment.RoomID,
		ViewerID:  comment.ViewerID,
		Message:   comment.Message,
		SentAt:    comment.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	return nil
}

func (s *GormRoomStore) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	if _, err := s.FindRoom(ctx, roomID); err != nil {
		return nil, err
	}

	var models []CommentModel
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("sent_at ASC").
		Order("comment_id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]domain.Comment, len(models))
	for i := range models {
		comments[i] = models[i].toDomain()
	}
	return comments, nil
}

func (s *GormRoomStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/config"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const roomsCollection = "rooms"

// roomDocument is one room with its comment log embedded.
type roomDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RoomID    string             `bson:"roomId"`
	Comments  []commentDocument  `bson:"comments"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type commentDocument struct {
	CommentID string    `bson:"commentId"`
	ViewerID  string    `bson:"viewerId"`
	Message   string    `bson:"message"`
	Timestamp time.Time `bson:"timestamp"`
}

// MongoRoomStore implements RoomStore on a MongoDB rooms collection.
type MongoRoomStore struct {
	client *mongo.Client
	rooms  *mongo.Collection
}

func NewMongoRoomStore(ctx context.Context, cfg config.MongoConfig) (*MongoRoomStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	rooms := client.Database(cfg.Database).Collection(roomsCollection)
	_, err = rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create rooms index: %w", err)
	}

	return &MongoRoomStore{client: client, rooms: rooms}, nil
}

func (s *MongoRoomStore) FindRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	var doc roomDocument
	opts := options.FindOne().SetProjection(bson.M{"comments": 0})
	err := s.rooms.FindOne(ctx, bson.M{"roomId": roomID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &domain.Room{RoomID: doc.RoomID, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoRoomStore) CreateRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	doc := roomDocument{
		RoomID:    roomID,
		Comments:  make([]commentDocument, 0),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.rooms.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &domain.Room{RoomID: doc.RoomID, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoRoomStore) EnsureRoom(ctx context.Context, roomID string) (*domain.Room, bool, error) {
	return ensureRoom(ctx, s, roomID)
}

func (s *MongoRoomStore) AppendComment(ctx context.Context, comment domain.Comment) error {
	entry := commentDocument{
		CommentID: comment.CommentID,
		ViewerID:  comment.ViewerID,
		Message:   comment.Message,
		Timestamp: comment.Timestamp,
	}
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"roomId": comment.RoomID},
		bson.M{"$push": bson.M{"comments": entry}},
	)
	if err != nil {
		return fmt.Errorf("failed to append comment: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *MongoRoomStore) ListComments(ctx context.Context, roomID string) ([]domain.Comment, error) {
	var doc roomDocument
	opts := options.FindOne().SetProjection(bson.M{"roomId": 1, "comments": 1})
	err := s.rooms.FindOne(ctx, bson.M{"roomId": roomID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	comments := make([]domain.Comment, len(doc.Comments))
	for i, c := range doc.Comments {
		comments[i] = domain.Comment{
			CommentID: c.CommentID,
			RoomID:    roomID,
			ViewerID:  c.ViewerID,
			Message:   c.Message,
			Timestamp: c.Timestamp,
		}
	}
	return comments, nil
}

func (s *MongoRoomStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

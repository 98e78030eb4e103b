package store

import (
	"context"
	"fmt"

	"github.com/Rohan-134v/Streamvibe/internal/config"
)

// New builds the RoomStore selected by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (RoomStore, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryRoomStore(), nil
	case "mongo":
		return NewMongoRoomStore(ctx, cfg.Mongo)
	case "postgres", "mysql", "sqlite":
		sqlCfg := cfg.SQL
		sqlCfg.Driver = cfg.Driver
		return NewGormRoomStore(&sqlCfg)
	case "cassandra":
		return NewCassandraRoomStore(cfg.Cassandra)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

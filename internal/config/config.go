package config

import (
	"os"
	"strings"
	"time"

	pkgconfig "github.com/Rohan-134v/Streamvibe/pkg/config"
	"github.com/Rohan-134v/Streamvibe/pkg/database"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	IDs       IDsConfig       `mapstructure:"ids"`
	Store     StoreConfig     `mapstructure:"store"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Duration fields are read with pkgconfig.Duration after Unmarshal.
type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"-"`
	PongWait       time.Duration `mapstructure:"-"`
	WriteWait      time.Duration `mapstructure:"-"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

type IDsConfig struct {
	Connection string `mapstructure:"connection"`
}

// StoreConfig selects the room store driver. Driver is one of memory,
// mongo, postgres, mysql, sqlite or cassandra.
type StoreConfig struct {
	Driver       string          `mapstructure:"driver"`
	WriteTimeout time.Duration   `mapstructure:"-"`
	Mongo        MongoConfig     `mapstructure:"mongo"`
	SQL          database.Config `mapstructure:"sql"`
	Cassandra    CassandraConfig `mapstructure:"cassandra"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type CassandraConfig struct {
	Hosts          []string      `mapstructure:"hosts"`
	Keyspace       string        `mapstructure:"keyspace"`
	Consistency    string        `mapstructure:"consistency"`
	ConnectTimeout time.Duration `mapstructure:"-"`
	Timeout        time.Duration `mapstructure:"-"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Prefix  string        `mapstructure:"prefix"`
	TTL     time.Duration `mapstructure:"-"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Brokers    string `mapstructure:"brokers"`
	Topic      string `mapstructure:"topic"`
	Partitions int    `mapstructure:"partitions"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 1<<20)
	v.SetDefault("websocket.send_buffer", 256)
	v.SetDefault("ids.connection", "uuid")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.write_timeout", "5s")
	v.SetDefault("store.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo.database", "streamvibe")
	v.SetDefault("store.sql.host", "localhost")
	v.SetDefault("store.sql.port", 5432)
	v.SetDefault("store.sql.dbname", "streamvibe")
	v.SetDefault("store.sql.sslmode", "disable")
	v.SetDefault("store.sql.file_path", "streamvibe.db")
	v.SetDefault("store.sql.log_level", "warn")
	v.SetDefault("store.cassandra.hosts", []string{"localhost:9042"})
	v.SetDefault("store.cassandra.keyspace", "streamvibe")
	v.SetDefault("store.cassandra.consistency", "LOCAL_ONE")
	v.SetDefault("store.cassandra.connect_timeout", "10s")
	v.SetDefault("store.cassandra.timeout", "5s")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.prefix", "streamvibe")
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "room-events")
	v.SetDefault("kafka.partitions", 4)
	v.SetDefault("log.level", "info")

	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("ids.connection", "CONNECTION_ID_GENERATOR")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.mongo.uri", "MONGO_URI")
	_ = v.BindEnv("store.mongo.database", "MONGO_DATABASE")
	_ = v.BindEnv("store.sql.driver", "DB_DRIVER")
	_ = v.BindEnv("store.sql.host", "DB_HOST")
	_ = v.BindEnv("store.sql.port", "DB_PORT")
	_ = v.BindEnv("store.sql.user", "DB_USER")
	_ = v.BindEnv("store.sql.password", "DB_PASSWORD")
	_ = v.BindEnv("store.sql.dbname", "DB_NAME")
	_ = v.BindEnv("store.cassandra.keyspace", "CASSANDRA_KEYSPACE")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("redis.address", "REDIS_ADDRESS")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("kafka.enabled", "KAFKA_ENABLED")
	_ = v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	_ = v.BindEnv("kafka.topic", "KAFKA_ROOM_EVENTS_TOPIC")
	_ = v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = pkgconfig.Duration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = pkgconfig.Duration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = pkgconfig.Duration(v, "websocket.write_wait", 10*time.Second)
	cfg.Store.WriteTimeout = pkgconfig.Duration(v, "store.write_timeout", 5*time.Second)
	cfg.Store.Cassandra.ConnectTimeout = pkgconfig.Duration(v, "store.cassandra.connect_timeout", 10*time.Second)
	cfg.Store.Cassandra.Timeout = pkgconfig.Duration(v, "store.cassandra.timeout", 5*time.Second)
	cfg.Cache.TTL = pkgconfig.Duration(v, "cache.ttl", 30*time.Second)

	// SQL drivers are addressed through store.driver; keep the two in step.
	switch cfg.Store.Driver {
	case "postgres", "mysql", "sqlite":
		if cfg.Store.SQL.Driver == "" {
			cfg.Store.SQL.Driver = cfg.Store.Driver
		}
	}

	// CASSANDRA_HOSTS: comma-separated, e.g. "cassandra:9042" or "host1:9042,host2:9042"
	if hosts := os.Getenv("CASSANDRA_HOSTS"); hosts != "" {
		cfg.Store.Cassandra.Hosts = strings.Split(strings.TrimSpace(hosts), ",")
		for i, h := range cfg.Store.Cassandra.Hosts {
			cfg.Store.Cassandra.Hosts[i] = strings.TrimSpace(h)
		}
	}

	return &cfg, nil
}


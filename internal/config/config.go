package config

import "time"

type Config struct {
	Service    *ServiceConfig
	Postgres   *PostgresConfig
	Redis      *RedisConfig
	Cloudinary *CloudinaryConfig
	Expo       *ExpoConfig
	Worker     *WorkerConfig
	Tracer     *TracerConfig
	Logger     *LoggerConfig
	JWTSecret  string
}

type ServiceConfig struct {
	Name string
	Env  string
	Addr string
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	MaxBytes  int64
}

type ExpoConfig struct {
	PushURL string
}

type WorkerConfig struct {
	PushStream string
	PushGroup  string
}

type TracerConfig struct {
	Address string
}

type LoggerConfig struct {
	Level  string
	Format string
}

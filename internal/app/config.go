package app

import (
	"strings"
	"time"

	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/platform/envutil"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

type Config struct {
	Environment string
	Version     string
	ServiceName string
	Addr        string
	CORSOrigins []string

	JWTSecretKey   string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	DocstoreDriver    string
	DocstoreIndexFile string
	DocstoreIndexHint string
	SQLitePath        string
	MongoURI          string
	MongoDatabase     string

	ReplyRoles        []string
	ReplyAllowOnError bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	AsyncLimit   int
	AsyncTimeout time.Duration

	ShutdownTimeout time.Duration
}

func (c Config) Development() bool {
	switch strings.ToLower(c.Environment) {
	case "", "dev", "development", "local":
		return true
	}
	return false
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Environment: envutil.String("APP_ENV", "development", log),
		Version:     envutil.String("APP_VERSION", "dev", log),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "coursehall-api", log),
		Addr:        envutil.String("HTTP_ADDR", ":8080", log),
		CORSOrigins: envutil.List("CORS_ORIGINS", nil, log),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		JWTIssuer:      envutil.String("JWT_ISSUER", "", log),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", time.Hour, log),

		DocstoreDriver:    strings.ToLower(envutil.String("DOCSTORE_DRIVER", DriverMemory, log)),
		DocstoreIndexFile: envutil.String("DOCSTORE_INDEX_FILE", "", log),
		DocstoreIndexHint: envutil.String("DOCSTORE_INDEX_HINT_BASE", "", log),
		SQLitePath:        envutil.String("SQLITE_PATH", "coursehall.db", log),
		MongoURI:          envutil.String("MONGO_URI", "mongodb://localhost:27017", log),
		MongoDatabase:     envutil.String("MONGO_DATABASE", "coursehall", log),

		ReplyRoles:        envutil.List("FORUM_REPLY_ROLES", []string{domain.RoleTeacher, domain.RoleAdmin, domain.RoleStudent}, log),
		ReplyAllowOnError: envutil.Bool("FORUM_REPLY_ALLOW_ON_ERROR", false, log),

		RedisAddr:     envutil.String("REDIS_ADDR", "", log),
		RedisPassword: envutil.String("REDIS_PASSWORD", "", log),
		RedisDB:       envutil.Int("REDIS_DB", 0, log),
		SessionTTL:    envutil.Duration("PLAYER_SESSION_TTL", 2*time.Hour, log),

		AsyncLimit:   envutil.Int("ASYNC_LIMIT", 8, log),
		AsyncTimeout: envutil.Duration("ASYNC_TIMEOUT", 10*time.Second, log),

		ShutdownTimeout: envutil.Duration("SHUTDOWN_TIMEOUT", 15*time.Second, log),
	}
	cfg.warn(log)
	return cfg
}

// warn reports settings that are legal but probably not intended.
func (c Config) warn(log *logger.Logger) {
	if log == nil {
		return
	}
	for _, r := range c.ReplyRoles {
		if strings.EqualFold(r, domain.RoleStudent) {
			log.Warn("Students may reply in the forum; set FORUM_REPLY_ROLES to restrict replies", "roles", c.ReplyRoles)
			break
		}
	}
	if c.ReplyAllowOnError && !c.Development() {
		log.Warn("FORUM_REPLY_ALLOW_ON_ERROR is ignored outside development", "environment", c.Environment)
	}
	if c.JWTSecretKey == "defaultsecret" && !c.Development() {
		log.Warn("JWT_SECRET_KEY is using the built-in default")
	}
}

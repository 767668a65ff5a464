package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type redisSessions struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisSessions connects and pings before returning.
func NewRedisSessions(cfg RedisConfig, log *logger.Logger) (SessionStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisSessions{
		log: log.With("service", "RedisPlayerSessions"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func (s *redisSessions) Load(ctx context.Context, userID, lessonID string) (State, bool, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(userID, lessonID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("load player session: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		s.log.Warn("Discarding unreadable player session", "user_id", userID, "lesson_id", lessonID, "error", err)
		return State{}, false, nil
	}
	return st, true, nil
}

func (s *redisSessions) Save(ctx context.Context, st State) error {
	st.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(st.UserID, st.LessonID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save player session: %w", err)
	}
	return nil
}

func (s *redisSessions) Delete(ctx context.Context, userID, lessonID string) error {
	return s.rdb.Del(ctx, sessionKey(userID, lessonID)).Err()
}

func (s *redisSessions) Close() error { return s.rdb.Close() }

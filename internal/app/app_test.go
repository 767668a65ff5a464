package app

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
	"github.com/yungbote/coursehall-backend/internal/services"
)

func testConfig() Config {
	return Config{
		Environment:     "test",
		ServiceName:     "coursehall-test",
		JWTSecretKey:    "secret",
		AccessTokenTTL:  time.Hour,
		DocstoreDriver:  DriverMemory,
		ReplyRoles:      []string{domain.RoleTeacher, domain.RoleAdmin},
		SessionTTL:      time.Minute,
		AsyncLimit:      2,
		AsyncTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestNewWithConfigServesHealthcheck(t *testing.T) {
	ctx := context.Background()
	a, err := NewWithConfig(ctx, testConfig(), logger.Nop())
	if err != nil {
		t.Fatalf("NewWithConfig: %v", err)
	}
	defer a.Close(ctx)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/api/healthcheck", nil))
	if rec.Code != nethttp.StatusOK {
		t.Fatalf("healthcheck status %d", rec.Code)
	}

	tok, err := a.Services.Auth.IssueToken(services.Identity{UserID: "s1", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if err := a.Store.Set(ctx, domain.CollectionUsers, "s1", docstore.Data{"role": domain.RoleStudent}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	req := httptest.NewRequest(nethttp.MethodGet, "/api/forum/can-reply", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	if rec.Code != nethttp.StatusOK || rec.Body.String() != `{"canReply":false}` {
		t.Fatalf("students are not in the configured reply roles: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DocstoreDriver = "cassandra"
	if _, err := NewWithConfig(context.Background(), cfg, logger.Nop()); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}

func TestLoadIndexesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indexes.yaml")
	body := "indexes:\n  - collection: forumPosts\n    fields:\n      - {field: courseId, order: asc}\n      - {field: createdAt, order: desc}\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := testConfig()
	cfg.DocstoreIndexFile = path
	cfg.DocstoreIndexHint = "https://console.example.com/indexes"
	reg, err := loadIndexes(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("loadIndexes: %v", err)
	}
	if len(reg.Indexes()) != 1 {
		t.Fatalf("expected 1 index, got %d", len(reg.Indexes()))
	}
	err = reg.Check(docstore.Query{
		Collection: "forumPosts",
		Filters:    []docstore.Filter{docstore.Eq("authorId", "u1")},
		Orders:     []docstore.Order{docstore.Desc("createdAt")},
	})
	if !docstore.IsMissingIndex(err) {
		t.Fatalf("expected missing index, got %v", err)
	}

	cfg.DocstoreIndexFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadIndexes(cfg, logger.Nop()); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestReplyPolicyOverrideOnlyInDevelopment(t *testing.T) {
	cfg := testConfig()
	cfg.ReplyAllowOnError = true
	if replyPolicy(cfg).AllowOnError {
		t.Fatalf("override must be ignored outside development")
	}
	cfg.Environment = "development"
	if !replyPolicy(cfg).AllowOnError {
		t.Fatalf("override should apply in development")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DOCSTORE_DRIVER", "Mongo")
	t.Setenv("FORUM_REPLY_ROLES", "teacher, admin")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	cfg := LoadConfig(logger.Nop())
	if cfg.Development() || cfg.DocstoreDriver != DriverMongo || len(cfg.ReplyRoles) != 2 || cfg.AccessTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

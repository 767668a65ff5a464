package docstore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	dbName := fmt.Sprintf("coursehall_test_%d", time.Now().UnixNano())
	s, err := NewMongoStore(ctx, uri, dbName, DefaultIndexes(), nopLogger())
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close(context.Background())
	})
	if _, ok := AsTransactor(s); ok {
		t.Fatalf("mongo store must not advertise transactions")
	}
	exerciseStore(t, s)
}

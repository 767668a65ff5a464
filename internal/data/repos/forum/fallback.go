package forum

import (
	"context"
	"regexp"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

var indexHintRe = regexp.MustCompile(`[a-z][a-z0-9+.\-]*://[^\s]+`)

// IndexHint extracts the index-creation link from a missing-index error.
// It returns the whole message when no link is present.
func IndexHint(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if m := indexHintRe.FindString(msg); m != "" {
		return m
	}
	return msg
}

// queryOrdered runs q and, when the store reports a missing composite index,
// re-issues the same filters without ordering or limit. The caller sorts the
// fallback result client-side.
func queryOrdered(ctx context.Context, store docstore.Store, log *logger.Logger, op string, q docstore.Query) ([]*docstore.Document, bool, error) {
	res, err := store.Query(ctx, q)
	if err == nil {
		return res.Docs, false, nil
	}
	if !docstore.IsMissingIndex(err) {
		return nil, false, err
	}
	log.Warn("Missing composite index, falling back to unordered query",
		"op", op,
		"collection", q.Collection,
		"index_hint", IndexHint(err),
	)
	unordered := docstore.Query{Collection: q.Collection, Filters: q.Filters}
	res, err = store.Query(ctx, unordered)
	if err != nil {
		return nil, true, err
	}
	return res.Docs, true, nil
}

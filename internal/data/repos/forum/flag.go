package forum

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type FlagRepo interface {
	Create(ctx context.Context, contentType domain.ContentType, contentID, reportedBy, reason string) (*domain.ContentFlag, error)
}

type flagRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewFlagRepo(store docstore.Store, baseLog *logger.Logger) FlagRepo {
	return &flagRepo{store: store, log: baseLog.With("repo", "FlagRepo")}
}

func (r *flagRepo) Create(ctx context.Context, contentType domain.ContentType, contentID, reportedBy, reason string) (*domain.ContentFlag, error) {
	const op = "forum.flag_content"
	if contentType != domain.ContentPost && contentType != domain.ContentReply {
		return nil, domain.Validation(op, "content type must be post or reply")
	}
	if strings.TrimSpace(contentID) == "" {
		return nil, domain.Validation(op, "content id is required")
	}
	if strings.TrimSpace(reportedBy) == "" {
		return nil, domain.Unauthenticated(op)
	}
	id, err := r.store.Create(ctx, domain.CollectionContentFlags, docstore.Data{
		"contentType": string(contentType),
		"contentId":   contentID,
		"reportedBy":  reportedBy,
		"reason":      reason,
		"status":      domain.FlagStatusPending,
		"createdAt":   docstore.ServerTimestamp(),
	})
	if err != nil {
		r.log.Error("Flag content failed", "op", op, "content_id", contentID, "error", err)
		return nil, docmap.StoreError(op, err)
	}
	return &domain.ContentFlag{
		ID:          id,
		ContentType: contentType,
		ContentID:   contentID,
		ReportedBy:  reportedBy,
		Reason:      reason,
		Status:      domain.FlagStatusPending,
		CreatedAt:   domain.PendingNow(),
	}, nil
}

package forum

import (
	"context"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

type ReplyRepo interface {
	// Create writes the reply and bumps the parent post's replyCount and
	// updatedAt.
	Create(ctx context.Context, in domain.NewReply) (*domain.PostReply, error)
	ListByPost(ctx context.Context, postID string) ([]domain.PostReply, error)
	Update(ctx context.Context, replyID, content string) error
}

type replyRepo struct {
	store docstore.Store
	log   *logger.Logger
}

func NewReplyRepo(store docstore.Store, baseLog *logger.Logger) ReplyRepo {
	repoLog := baseLog.With("repo", "ReplyRepo")
	return &replyRepo{store: store, log: repoLog}
}

func (r *replyRepo) fail(op string, err error) error {
	r.log.Error("Forum reply operation failed", "op", op, "error", err)
	return docmap.StoreError(op, err)
}

func replyData(in domain.NewReply) docstore.Data {
	return docstore.Data{
		"postId":     in.PostID,
		"content":    in.Content,
		"authorId":   in.AuthorID,
		"authorName": in.AuthorName,
		"createdAt":  docstore.ServerTimestamp(),
	}
}

func bumpPost() docstore.Data {
	return docstore.Data{
		"replyCount": docstore.Increment(1),
		"updatedAt":  docstore.ServerTimestamp(),
	}
}

// Create commits the reply and the counter bump together when the store
// supports transactions. Otherwise the reply is written first and a failed
// bump is logged and swallowed.
func (r *replyRepo) Create(ctx context.Context, in domain.NewReply) (*domain.PostReply, error) {
	const op = "forum.create_reply"
	if strings.TrimSpace(in.PostID) == "" {
		return nil, domain.Validation(op, "post id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, domain.Validation(op, "reply content is required")
	}

	var id string
	if tr, ok := docstore.AsTransactor(r.store); ok {
		err := tr.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
			var err error
			if id, err = tx.Create(ctx, domain.CollectionPostReplies, replyData(in)); err != nil {
				return err
			}
			return tx.Update(ctx, domain.CollectionForumPosts, in.PostID, bumpPost())
		})
		if err != nil {
			return nil, r.fail(op, err)
		}
	} else {
		var err error
		id, err = r.store.Create(ctx, domain.CollectionPostReplies, replyData(in))
		if err != nil {
			return nil, r.fail(op, err)
		}
		if err := r.store.Update(ctx, domain.CollectionForumPosts, in.PostID, bumpPost()); err != nil {
			r.log.Warn("Reply stored but reply count not incremented",
				"op", op, "post_id", in.PostID, "reply_id", id, "error", err)
		}
	}

	return &domain.PostReply{
		ID:         id,
		PostID:     in.PostID,
		Content:    in.Content,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		CreatedAt:  domain.PendingNow(),
	}, nil
}

func (r *replyRepo) ListByPost(ctx context.Context, postID string) ([]domain.PostReply, error) {
	const op = "forum.list_replies"
	if strings.TrimSpace(postID) == "" {
		return nil, domain.Validation(op, "post id is required")
	}
	docs, fellBack, err := queryOrdered(ctx, r.store, r.log, op, docstore.Query{
		Collection: domain.CollectionPostReplies,
		Filters:    []docstore.Filter{docstore.Eq("postId", postID)},
		Orders:     []docstore.Order{docstore.Asc("createdAt")},
	})
	if err != nil {
		return nil, r.fail(op, err)
	}
	replies, err := docmap.DecodeAll[domain.PostReply](docs)
	if err != nil {
		return nil, r.fail(op, err)
	}
	if fellBack {
		docmap.SortByTime(replies, func(p domain.PostReply) domain.Timestamp { return p.CreatedAt }, false)
	}
	return replies, nil
}

func (r *replyRepo) Update(ctx context.Context, replyID, content string) error {
	const op = "forum.update_reply"
	if strings.TrimSpace(content) == "" {
		return domain.Validation(op, "reply content is required")
	}
	err := r.store.Update(ctx, domain.CollectionPostReplies, replyID, docstore.Data{
		"content":   content,
		"updatedAt": docstore.ServerTimestamp(),
	})
	if err != nil {
		return r.fail(op, err)
	}
	return nil
}

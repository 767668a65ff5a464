package forum

import (
	"context"
	"errors"
	"strings"

	"github.com/yungbote/coursehall-backend/internal/data/docstore"
	"github.com/yungbote/coursehall-backend/internal/data/repos/docmap"
	"github.com/yungbote/coursehall-backend/internal/domain"
	"github.com/yungbote/coursehall-backend/internal/pkg/logger"
)

// ReplyPolicy decides who may reply. AllowOnError is only honoured by
// callers running in development mode.
type ReplyPolicy struct {
	Roles        []string
	AllowOnError bool
}

func DefaultReplyPolicy() ReplyPolicy {
	return ReplyPolicy{Roles: []string{domain.RoleTeacher, domain.RoleAdmin, domain.RoleStudent}}
}

func (p ReplyPolicy) allows(role string) bool {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.EqualFold(strings.TrimSpace(r), role) {
			return true
		}
	}
	return false
}

type PermissionRepo interface {
	CanReply(ctx context.Context, userID string) bool
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
}

type permissionRepo struct {
	store  docstore.Store
	policy ReplyPolicy
	log    *logger.Logger
}

func NewPermissionRepo(store docstore.Store, policy ReplyPolicy, baseLog *logger.Logger) PermissionRepo {
	return &permissionRepo{store: store, policy: policy, log: baseLog.With("repo", "PermissionRepo")}
}

func (r *permissionRepo) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	const op = "forum.get_profile"
	doc, err := r.store.Get(ctx, domain.CollectionUsers, userID)
	if err != nil {
		return nil, docmap.StoreError(op, err)
	}
	var p domain.UserProfile
	if err := docmap.Decode(doc, &p); err != nil {
		return nil, docmap.StoreError(op, err)
	}
	return &p, nil
}

// CanReply is true only when the user's profile role is one of the policy
// roles. A missing profile is false. Lookup errors are false unless the
// policy allows replies on error.
func (r *permissionRepo) CanReply(ctx context.Context, userID string) bool {
	if strings.TrimSpace(userID) == "" {
		return false
	}
	p, err := r.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			r.log.Warn("User profile not found for reply check", "user_id", userID)
			return false
		}
		r.log.Error("Reply permission lookup failed", "user_id", userID, "error", err)
		if r.policy.AllowOnError {
			r.log.Warn("Allowing reply despite permission lookup error", "user_id", userID)
			return true
		}
		return false
	}
	return r.policy.allows(p.Role)
}

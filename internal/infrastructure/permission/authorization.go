package permission

import (
	"context"

	"warden/internal/application/modmail/usecases"
)

// ModmailAuthorization answers the lifecycle permission checks against the
// casbin policy store.
type ModmailAuthorization struct {
	enforcer *Enforcer
}

var _ usecases.Authorization = (*ModmailAuthorization)(nil)

func NewModmailAuthorization(enforcer *Enforcer) *ModmailAuthorization {
	return &ModmailAuthorization{enforcer: enforcer}
}

// CanManage reports whether the actor holds the full modmail lifecycle
// capability (open, close, reopen for any applicant).
func (a *ModmailAuthorization) CanManage(ctx context.Context, actorID string) (bool, error) {
	return a.enforcer.Enforce(actorID, "modmail", "manage")
}

// IsReviewer reports whether the actor may open threads for applicants
// under review.
func (a *ModmailAuthorization) IsReviewer(ctx context.Context, actorID string) (bool, error) {
	return a.enforcer.Enforce(actorID, "modmail", "review")
}

package workflow

import (
	"context"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/authz"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/models"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID       uint
	Role         models.UserRole
	Capabilities authz.Set
}

// SystemActor is used by the scheduler; it can only auto-lock.
func SystemActor() Actor {
	return Actor{Capabilities: authz.NewSet(authz.CapTasksAutoLock)}
}

// IsSystem reports whether the actor is the scheduler rather than a user.
func (a Actor) IsSystem() bool {
	return a.UserID == 0
}

// Can reports whether the actor may perform op.
func (a Actor) Can(op authz.Operation) bool {
	return authz.CanTransition(a.Capabilities, op)
}

// Authorize returns a Forbidden error when the actor lacks the capability for op.
func (a Actor) Authorize(op authz.Operation) error {
	if a.Can(op) {
		return nil
	}
	return Forbidden("%s requires capability %s", op, authz.CapabilityFor(op))
}

// SubmissionSource classifies who uploaded an artifact.
func (a Actor) SubmissionSource() models.SubmissionSource {
	if a.Role == models.RoleClient {
		return models.SourceClient
	}
	return models.SourceAdminOnBehalf
}

type actorKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok
}

package auth

import (
	"context"

	"github.com/jzelenk/adminboard/internal/models"
)

// DecisionCode classifies the outcome of an authorization check.
type DecisionCode int

// Authorization outcomes. Unauthenticated is distinct from Forbidden so the
// boundary can redirect instead of rejecting, and Banned is distinct so the
// stored reason can be surfaced.
const (
	DecisionAllow DecisionCode = iota
	DecisionUnauthenticated
	DecisionBanned
	DecisionForbidden
)

// Decision is the result of an authorization check.
type Decision struct {
	Code   DecisionCode // Outcome class.
	Reason string       // Ban reason when Code is DecisionBanned.
}

// Allowed reports whether the check passed.
func (d Decision) Allowed() bool {
	return d.Code == DecisionAllow
}

// Authorize decides whether user may perform an operation requiring the
// given role. Ban state is re-read from the database on every call so a ban
// revokes access immediately, and the ban check precedes the role check.
func (m *Manager) Authorize(ctx context.Context, required Role, user *models.User) Decision {
	if user == nil {
		return Decision{Code: DecisionUnauthenticated}
	}

	ban, errBan := m.ActiveBan(ctx, user.ID)
	if errBan != nil {
		return Decision{Code: DecisionForbidden}
	}
	if ban != nil {
		return Decision{Code: DecisionBanned, Reason: ban.Reason}
	}

	if !Role(user.Role).AtLeast(required) {
		return Decision{Code: DecisionForbidden}
	}
	return Decision{Code: DecisionAllow}
}

// Action names a user-management operation covered by the guardrail table.
type Action string

// Guarded user-management actions.
const (
	ActionBan             Action = "ban"
	ActionUnban           Action = "unban"
	ActionChangeRole      Action = "change-role"
	ActionDelete          Action = "delete"
	ActionRegenerateToken Action = "regenerate-token"
)

// guardrail describes the constraints on one guarded action.
type guardrail struct {
	allowSelf bool // Whether the actor may target their own account.
}

// guardrails is the single configuration table for self-protection rules:
// every guarded action requires the target to have strictly lower privilege
// than the actor, and destructive actions never apply to the actor's own
// account.
var guardrails = map[Action]guardrail{
	ActionBan:             {allowSelf: false},
	ActionUnban:           {allowSelf: false},
	ActionChangeRole:      {allowSelf: false},
	ActionDelete:          {allowSelf: false},
	ActionRegenerateToken: {allowSelf: true},
}

// CanActOn enforces the guardrail table for actor-on-target operations.
func CanActOn(actor, target *models.User, action Action) error {
	if actor == nil || target == nil {
		return ErrNotFound
	}
	rule, ok := guardrails[action]
	if !ok {
		return ErrValidation
	}
	if actor.ID == target.ID {
		if rule.allowSelf {
			return nil
		}
		return ErrSelfAction
	}
	if !Role(actor.Role).Outranks(Role(target.Role)) {
		return ErrPrivilege
	}
	return nil
}

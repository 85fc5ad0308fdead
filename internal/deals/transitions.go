package deals

import (
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	pkgerrors "github.com/syncdeck/syncdeck-backend/pkg/errors"
)

// transition is one permitted move in the negotiation state machine.
type transition struct {
	From  enums.DealState
	To    enums.DealState
	Roles []enums.UserRole
}

// transitionTable declares every legal negotiation move and who may take it.
// Anything not listed is rejected, which covers the terminal states
// (accepted, declined, cancelled) having no outgoing rows.
var transitionTable = []transition{
	{From: enums.DealStatePending, To: enums.DealStateCountered, Roles: []enums.UserRole{enums.UserRoleArtist, enums.UserRoleExec}},
	{From: enums.DealStatePending, To: enums.DealStateAccepted, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStatePending, To: enums.DealStateDeclined, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStatePending, To: enums.DealStateCancelled, Roles: []enums.UserRole{enums.UserRoleExec}},
	{From: enums.DealStateCountered, To: enums.DealStatePending, Roles: []enums.UserRole{enums.UserRoleExec}},
	{From: enums.DealStateCountered, To: enums.DealStateAccepted, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStateCountered, To: enums.DealStateDeclined, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStateCountered, To: enums.DealStateCancelled, Roles: []enums.UserRole{enums.UserRoleExec}},
	{From: enums.DealStateAwaitingResponse, To: enums.DealStateAccepted, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStateAwaitingResponse, To: enums.DealStateDeclined, Roles: []enums.UserRole{enums.UserRoleArtist}},
	{From: enums.DealStateAwaitingResponse, To: enums.DealStateCancelled, Roles: []enums.UserRole{enums.UserRoleExec}},
	{From: enums.DealStateAwaitingResponse, To: enums.DealStateCountered, Roles: []enums.UserRole{enums.UserRoleArtist}},
}

// allowedRoles returns the roles permitted to move a deal between the two
// states, or nil when the pair is not a legal transition.
func allowedRoles(from, to enums.DealState) []enums.UserRole {
	for _, t := range transitionTable {
		if t.From == from && t.To == to {
			return t.Roles
		}
	}
	return nil
}

func roleAllowed(roles []enums.UserRole, role enums.UserRole) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// actionForTarget derives the audit label from the transition target. The
// exec accepting a counter returns the deal to pending; that move gets its
// own confirm label so the trail can tell it apart from a counter offer.
func actionForTarget(to enums.DealState) (enums.DealAction, error) {
	switch to {
	case enums.DealStateCountered:
		return enums.DealActionCounter, nil
	case enums.DealStateAccepted:
		return enums.DealActionAccept, nil
	case enums.DealStateDeclined:
		return enums.DealActionDecline, nil
	case enums.DealStateCancelled:
		return enums.DealActionCancel, nil
	case enums.DealStatePending:
		return enums.DealActionConfirm, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "no audit action for target state")
	}
}

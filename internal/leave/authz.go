package leave

// capabilities is the closed role/action table. Ownership and service scoping
// are enforced on top of it by Authorize.
var capabilities = map[Role]map[Action]bool{
	RoleEmployee: {
		ActionCreate:  true,
		ActionDelete:  true,
		ActionComment: true,
		ActionRead:    true,
	},
	RoleChef: {
		ActionApprove: true,
		ActionReject:  true,
		ActionRevoke:  true,
		ActionDelete:  true,
		ActionComment: true,
		ActionRead:    true,
	},
	RoleHR: {
		ActionRead: true,
	},
}

// Can reports whether the role holds the capability at all, ignoring
// record scoping.
func Can(role Role, action Action) bool {
	return capabilities[role][action]
}

// Authorize checks that the actor may perform action on the record. It fails
// with ErrForbidden when the role lacks the capability, when a chef acts on a
// request assigned to someone else, or when an employee acts on a request
// they do not own. The check precedes every engine call; the engine itself is
// actor-agnostic.
func Authorize(actor ActorContext, action Action, rec RequestRecord) error {
	if !Can(actor.Role, action) {
		return ErrForbidden
	}
	if action == ActionRead {
		if !CanRead(actor, rec) {
			return ErrForbidden
		}
		return nil
	}
	switch actor.Role {
	case RoleEmployee:
		if rec.Requester.ID != actor.ID {
			return ErrForbidden
		}
	case RoleChef:
		if rec.Requester.ServiceID != actor.ServiceID {
			return ErrForbidden
		}
		// Decisions are reserved for the assigned approver; commenting only
		// needs the service scope.
		if action != ActionComment && rec.Approver.ID != actor.ID {
			return ErrForbidden
		}
	default:
		return ErrForbidden
	}
	return nil
}

// CanRead mirrors the read-history scoping: employees see their own requests,
// chefs their service's, HR everything.
func CanRead(actor ActorContext, rec RequestRecord) bool {
	switch actor.Role {
	case RoleEmployee:
		return rec.Requester.ID == actor.ID
	case RoleChef:
		return rec.Requester.ServiceID == actor.ServiceID
	case RoleHR:
		return true
	}
	return false
}

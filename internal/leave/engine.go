package leave

import "time"

// transition is a single allowed edge in the request lifecycle.
type transition struct {
	from Status
	to   Status
}

// The full lifecycle: EN_ATTENTE is initial; APPROUVEE can still be revoked;
// REFUSEE, ANNULEE and SUPPRIMEE are terminal. Deletion is only legal while
// pending, approved and rejected requests are history.
var transitions = map[Action]transition{
	ActionApprove: {from: StatusPending, to: StatusApproved},
	ActionReject:  {from: StatusPending, to: StatusRejected},
	ActionRevoke:  {from: StatusApproved, to: StatusRevoked},
	ActionDelete:  {from: StatusPending, to: StatusDeleted},
}

// NextStatus resolves the target status for applying action to from.
// Unknown actions and illegal edges both fail with ErrInvalidTransition, so a
// second approve on an already approved record surfaces the stale premise
// instead of silently succeeding.
func NextStatus(from Status, action Action) (Status, error) {
	tr, ok := transitions[action]
	if !ok || tr.from != from {
		return "", ErrInvalidTransition
	}
	return tr.to, nil
}

// Engine applies lifecycle transitions to request snapshots. It performs no
// I/O and trusts its caller on authorization; the service checks capabilities
// before every call.
type Engine struct{}

// Approve moves a pending request to APPROUVEE. A non-empty comment becomes a
// discussion entry authored by the deciding chef.
func (Engine) Approve(rec RequestRecord, decidedBy int64, comment string, now time.Time) (RequestRecord, *DiscussionEntry, error) {
	next, err := NextStatus(rec.Status, ActionApprove)
	if err != nil {
		return rec, nil, err
	}
	rec.Status = next
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &now
	if blank(comment) {
		return rec, nil, nil
	}
	entry := DiscussionEntry{
		AuthorID:   decidedBy,
		AuthorName: rec.Approver.FullName,
		AuthorRole: RoleChef,
		Message:    comment,
		PostedAt:   now,
	}
	return rec, &entry, nil
}

// Reject moves a pending request to REFUSEE. The motif is mandatory and is
// stored on the record.
func (Engine) Reject(rec RequestRecord, decidedBy int64, motif string, now time.Time) (RequestRecord, error) {
	if blank(motif) {
		return rec, ErrValidation
	}
	next, err := NextStatus(rec.Status, ActionReject)
	if err != nil {
		return rec, err
	}
	rec.Status = next
	rec.Motif = motif
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &now
	return rec, nil
}

// Revoke withdraws an approved request. Revoking a request that was never
// approved is meaningless and fails.
func (Engine) Revoke(rec RequestRecord, decidedBy int64, now time.Time) (RequestRecord, error) {
	next, err := NextStatus(rec.Status, ActionRevoke)
	if err != nil {
		return rec, err
	}
	rec.Status = next
	rec.DecidedBy = &decidedBy
	rec.DecidedAt = &now
	return rec, nil
}

// Delete removes a request that is still pending.
func (Engine) Delete(rec RequestRecord) (RequestRecord, error) {
	next, err := NextStatus(rec.Status, ActionDelete)
	if err != nil {
		return rec, err
	}
	rec.Status = next
	return rec, nil
}

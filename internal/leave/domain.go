package leave

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Request lifecycle statuses. The stored values follow the vocabulary the
// HR portal exposes to its clients.
type Status string

const (
	StatusPending  Status = "EN_ATTENTE"
	StatusApproved Status = "APPROUVEE"
	StatusRejected Status = "REFUSEE"
	StatusRevoked  Status = "ANNULEE"
	StatusDeleted  Status = "SUPPRIMEE"
)

// Role identifies the kind of actor invoking an operation.
type Role string

const (
	RoleEmployee Role = "EMPLOYE"
	RoleChef     Role = "CHEF_SERVICE"
	RoleHR       Role = "RH"
)

// Action enumerates the operations the lifecycle service accepts.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionRevoke  Action = "REVOKE"
	ActionDelete  Action = "DELETE"
	ActionComment Action = "COMMENT"
	ActionRead    Action = "READ"
)

// ActorContext carries the identity invoking a call. It is passed explicitly
// into every service operation; nothing below the handler layer reads session
// state.
type ActorContext struct {
	ID        int64
	Role      Role
	ServiceID int64
}

// Requester identifies the employee owning a request.
type Requester struct {
	ID          int64
	FullName    string
	Email       string
	ServiceID   int64
	ServiceName string
}

// Approver identifies the chef de service assigned to decide a request.
type Approver struct {
	ID        int64
	FullName  string
	ServiceID int64
}

// Period is the requested date range with its inclusive day count.
type Period struct {
	Start    time.Time
	End      time.Time
	DayCount int
}

// Days returns the inclusive day span of [start, end].
func Days(start, end time.Time) int {
	start = start.Truncate(24 * time.Hour)
	end = end.Truncate(24 * time.Hour)
	return int(end.Sub(start).Hours()/24) + 1
}

// Validate checks date ordering and the day count invariant.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return ErrValidation
	}
	if p.End.Before(p.Start) {
		return ErrValidation
	}
	if p.DayCount != Days(p.Start, p.End) {
		return ErrValidation
	}
	return nil
}

// DiscussionEntry is one message in a request's append-only thread.
type DiscussionEntry struct {
	ID         int64
	AuthorID   int64
	AuthorName string
	AuthorRole Role
	Message    string
	PostedAt   time.Time
}

// RequestRecord is a leave request snapshot. Status and discussions mutate
// only through the lifecycle service; everything else is fixed at creation.
type RequestRecord struct {
	ID          uuid.UUID
	Requester   Requester
	LeaveTypeID int64
	LeaveType   string
	Period      Period
	Motif       string
	Status      Status
	Approver    Approver
	DecidedBy   *int64
	DecidedAt   *time.Time
	FicheRef    string
	Version     int64
	CreatedAt   time.Time
	Discussions []DiscussionEntry
}

var (
	// ErrInvalidTransition occurs when an action is not legal from the
	// record's current status, including stale-version writes.
	ErrInvalidTransition = errors.New("leave: invalid state transition")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("leave: invalid input")
	// ErrForbidden indicates the actor lacks the capability or does not
	// own / is not assigned to the record.
	ErrForbidden = errors.New("leave: forbidden")
	// ErrNotFound indicates the record no longer exists.
	ErrNotFound = errors.New("leave: not found")
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

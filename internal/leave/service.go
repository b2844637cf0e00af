package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/horizon-rh/horizon-rh/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (RequestRecord, error)
	List(ctx context.Context, filter ListFilter) ([]RequestRecord, int, error)
	ListDiscussions(ctx context.Context, requestID uuid.UUID) ([]DiscussionEntry, error)
}

// OrgDirectory resolves employees, their service chef and leave types from
// master data. The core only depends on this narrow surface.
type OrgDirectory interface {
	Employee(ctx context.Context, id int64) (Requester, error)
	Chef(ctx context.Context, serviceID int64) (Approver, error)
	LeaveTypeLabel(ctx context.Context, id int64) (string, error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Notifier pushes post-decision work to the background queue.
type Notifier interface {
	NotifyDecision(ctx context.Context, rec RequestRecord) error
	EnqueueFiche(ctx context.Context, requestID uuid.UUID) error
}

// MetricsPort counts lifecycle actions by outcome.
type MetricsPort interface {
	ObserveAction(action Action, err error)
}

// Service orchestrates the request lifecycle. It is the sole mutator of
// request records: authorization, then the engine, then one transaction for
// the transition and its discussion entry.
type Service struct {
	repo        RepositoryPort
	org         OrgDirectory
	engine      Engine
	audit       AuditPort
	notifier    Notifier
	metrics     MetricsPort
	idempotency *shared.IdempotencyStore
}

// NewService constructs the lifecycle service.
func NewService(repo RepositoryPort, org OrgDirectory, audit AuditPort, notifier Notifier, metrics MetricsPort, idem *shared.IdempotencyStore) *Service {
	return &Service{repo: repo, org: org, audit: audit, notifier: notifier, metrics: metrics, idempotency: idem}
}

// CreateInput describes the creation payload.
type CreateInput struct {
	LeaveTypeID int64
	Motif       string
	Start       time.Time
	End         time.Time
	DayCount    int
}

// Create registers a new pending request for the acting employee. The day
// count is computed server-side; a client-supplied value that disagrees with
// the inclusive span is rejected.
func (s *Service) Create(ctx context.Context, actor ActorContext, input CreateInput) (RequestRecord, error) {
	if !Can(actor.Role, ActionCreate) {
		return RequestRecord{}, s.observe(ActionCreate, ErrForbidden)
	}
	if input.LeaveTypeID == 0 || input.Start.IsZero() || input.End.IsZero() || input.End.Before(input.Start) {
		return RequestRecord{}, s.observe(ActionCreate, ErrValidation)
	}
	days := Days(input.Start, input.End)
	if input.DayCount != 0 && input.DayCount != days {
		return RequestRecord{}, s.observe(ActionCreate, ErrValidation)
	}

	var (
		requester Requester
		label     string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requester, err = s.org.Employee(gctx, actor.ID)
		return err
	})
	g.Go(func() error {
		var err error
		label, err = s.org.LeaveTypeLabel(gctx, input.LeaveTypeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return RequestRecord{}, s.observe(ActionCreate, err)
	}
	approver, err := s.org.Chef(ctx, requester.ServiceID)
	if err != nil {
		return RequestRecord{}, s.observe(ActionCreate, err)
	}

	rec := RequestRecord{
		ID:          uuid.New(),
		Requester:   requester,
		LeaveTypeID: input.LeaveTypeID,
		LeaveType:   label,
		Period:      Period{Start: input.Start, End: input.End, DayCount: days},
		Motif:       input.Motif,
		Status:      StatusPending,
		Approver:    approver,
		Version:     1,
		CreatedAt:   time.Now(),
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertRequest(ctx, rec)
	})
	if err != nil {
		return RequestRecord{}, s.observe(ActionCreate, err)
	}
	s.recordAudit(ctx, actor, "CONGE_CREATE", rec.ID, map[string]any{"type": rec.LeaveType, "jours": days})
	return rec, s.observe(ActionCreate, nil)
}

// Get returns one request, scoped to the actor's read rights.
func (s *Service) Get(ctx context.Context, actor ActorContext, id uuid.UUID) (RequestRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return RequestRecord{}, err
	}
	if err := Authorize(actor, ActionRead, rec); err != nil {
		return RequestRecord{}, err
	}
	return rec, nil
}

// List returns the actor's visible history: employees see their own requests,
// chefs their service's, HR everything.
func (s *Service) List(ctx context.Context, actor ActorContext, filter ListFilter) ([]RequestRecord, int, error) {
	switch actor.Role {
	case RoleEmployee:
		filter.RequesterID = actor.ID
		filter.ServiceID = 0
	case RoleChef:
		filter.RequesterID = 0
		filter.ServiceID = actor.ServiceID
	case RoleHR:
		filter.RequesterID = 0
		filter.ServiceID = 0
	default:
		return nil, 0, ErrForbidden
	}
	return s.repo.List(ctx, filter)
}

// Approve transitions a pending request to APPROUVEE. An optional comment is
// appended to the discussion thread in the same transaction.
func (s *Service) Approve(ctx context.Context, actor ActorContext, id uuid.UUID, comment string) (RequestRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return RequestRecord{}, s.observe(ActionApprove, err)
	}
	if err := Authorize(actor, ActionApprove, rec); err != nil {
		return RequestRecord{}, s.observe(ActionApprove, err)
	}
	updated, entry, err := s.engine.Approve(rec, actor.ID, comment, time.Now())
	if err != nil {
		return RequestRecord{}, s.observe(ActionApprove, err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.ApplyTransition(ctx, updated); err != nil {
			return err
		}
		if entry != nil {
			entryID, err := tx.InsertDiscussion(ctx, updated.ID, *entry)
			if err != nil {
				return err
			}
			entry.ID = entryID
		}
		return nil
	})
	if err != nil {
		return RequestRecord{}, s.observe(ActionApprove, err)
	}
	updated.Version++
	if entry != nil {
		updated.Discussions = append(updated.Discussions, *entry)
	}
	s.recordAudit(ctx, actor, "CONGE_APPROVE", updated.ID, nil)
	s.notifyDecision(ctx, updated)
	return updated, s.observe(ActionApprove, nil)
}

// Reject transitions a pending request to REFUSEE. The motif is required.
func (s *Service) Reject(ctx context.Context, actor ActorContext, id uuid.UUID, motif string) (RequestRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return RequestRecord{}, s.observe(ActionReject, err)
	}
	if err := Authorize(actor, ActionReject, rec); err != nil {
		return RequestRecord{}, s.observe(ActionReject, err)
	}
	updated, err := s.engine.Reject(rec, actor.ID, motif, time.Now())
	if err != nil {
		return RequestRecord{}, s.observe(ActionReject, err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.ApplyTransition(ctx, updated)
	})
	if err != nil {
		return RequestRecord{}, s.observe(ActionReject, err)
	}
	updated.Version++
	s.recordAudit(ctx, actor, "CONGE_REJECT", updated.ID, map[string]any{"motif": motif})
	s.notifyDecision(ctx, updated)
	return updated, s.observe(ActionReject, nil)
}

// Revoke withdraws a previously approved request.
func (s *Service) Revoke(ctx context.Context, actor ActorContext, id uuid.UUID) (RequestRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return RequestRecord{}, s.observe(ActionRevoke, err)
	}
	if err := Authorize(actor, ActionRevoke, rec); err != nil {
		return RequestRecord{}, s.observe(ActionRevoke, err)
	}
	updated, err := s.engine.Revoke(rec, actor.ID, time.Now())
	if err != nil {
		return RequestRecord{}, s.observe(ActionRevoke, err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.ApplyTransition(ctx, updated)
	})
	if err != nil {
		return RequestRecord{}, s.observe(ActionRevoke, err)
	}
	updated.Version++
	s.recordAudit(ctx, actor, "CONGE_REVOKE", updated.ID, nil)
	s.notifyDecision(ctx, updated)
	return updated, s.observe(ActionRevoke, nil)
}

// Delete removes a request that is still pending. Approved and rejected
// requests are historical and must not be erased.
func (s *Service) Delete(ctx context.Context, actor ActorContext, id uuid.UUID) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return s.observe(ActionDelete, err)
	}
	if err := Authorize(actor, ActionDelete, rec); err != nil {
		return s.observe(ActionDelete, err)
	}
	updated, err := s.engine.Delete(rec)
	if err != nil {
		return s.observe(ActionDelete, err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.ApplyTransition(ctx, updated)
	})
	if err != nil {
		return s.observe(ActionDelete, err)
	}
	s.recordAudit(ctx, actor, "CONGE_DELETE", rec.ID, nil)
	return s.observe(ActionDelete, nil)
}

// AppendDiscussion adds one entry to the request's thread. Entries are never
// edited or removed afterwards.
func (s *Service) AppendDiscussion(ctx context.Context, actor ActorContext, id uuid.UUID, message string, postedAt time.Time) (DiscussionEntry, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return DiscussionEntry{}, s.observe(ActionComment, err)
	}
	if err := Authorize(actor, ActionComment, rec); err != nil {
		return DiscussionEntry{}, s.observe(ActionComment, err)
	}
	entry, err := NewDiscussionEntry(actor, s.authorName(actor, rec), message, postedAt, time.Now())
	if err != nil {
		return DiscussionEntry{}, s.observe(ActionComment, err)
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		entryID, err := tx.InsertDiscussion(ctx, rec.ID, entry)
		if err != nil {
			return err
		}
		entry.ID = entryID
		return nil
	})
	if err != nil {
		return DiscussionEntry{}, s.observe(ActionComment, err)
	}
	return entry, s.observe(ActionComment, nil)
}

// Discussions returns the ordered thread for a request the actor may read.
func (s *Service) Discussions(ctx context.Context, actor ActorContext, id uuid.UUID) (Thread, error) {
	rec, err := s.Get(ctx, actor, id)
	if err != nil {
		return Thread{}, err
	}
	return ThreadOf(rec), nil
}

// RequestFiche queues background generation of the fiche document. Duplicate
// requests for the same snapshot collapse on the idempotency key.
func (s *Service) RequestFiche(ctx context.Context, actor ActorContext, id uuid.UUID) error {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, ActionRead, rec); err != nil {
		return err
	}
	if s.notifier == nil {
		return errors.New("leave: fiche queue not configured")
	}
	if s.idempotency != nil {
		key := fmt.Sprintf("FICHE:%s:v%d", rec.ID, rec.Version)
		if err := s.idempotency.CheckAndInsert(ctx, key, "leave.fiche"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil
			}
			return err
		}
	}
	return s.notifier.EnqueueFiche(ctx, rec.ID)
}

// SetFicheRef records the generated fiche artefact on the request. Called by
// the worker once the document is stored.
func (s *Service) SetFicheRef(ctx context.Context, id uuid.UUID, ref string) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetFicheRef(ctx, id, ref)
	})
}

func (s *Service) authorName(actor ActorContext, rec RequestRecord) string {
	switch actor.Role {
	case RoleEmployee:
		return rec.Requester.FullName
	case RoleChef:
		return rec.Approver.FullName
	}
	return ""
}

func (s *Service) notifyDecision(ctx context.Context, rec RequestRecord) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.NotifyDecision(ctx, rec)
}

func (s *Service) recordAudit(ctx context.Context, actor ActorContext, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actor.ID, Action: action, Entity: "conge", EntityID: id.String(), Meta: meta})
}

func (s *Service) observe(action Action, err error) error {
	if s.metrics != nil {
		s.metrics.ObserveAction(action, err)
	}
	return err
}

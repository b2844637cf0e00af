package leave

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/horizon-rh/horizon-rh/internal/shared"
)

// memRepo is an in-memory RepositoryPort double. ApplyTransition enforces the
// same version guard as the SQL implementation so stale snapshots fail here
// too.
type memRepo struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]*RequestRecord
	discussions map[uuid.UUID][]DiscussionEntry
	nextEntryID int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		requests:    make(map[uuid.UUID]*RequestRecord),
		discussions: make(map[uuid.UUID][]DiscussionEntry),
	}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, r)
}

func (r *memRepo) Get(_ context.Context, id uuid.UUID) (RequestRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.requests[id]
	if !ok || rec.Status == StatusDeleted {
		return RequestRecord{}, ErrNotFound
	}
	out := *rec
	out.Discussions = append([]DiscussionEntry(nil), r.discussions[id]...)
	return out, nil
}

func (r *memRepo) List(_ context.Context, filter ListFilter) ([]RequestRecord, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []RequestRecord
	for _, rec := range r.requests {
		if rec.Status == StatusDeleted {
			continue
		}
		if filter.RequesterID != 0 && rec.Requester.ID != filter.RequesterID {
			continue
		}
		if filter.ServiceID != 0 && rec.Requester.ServiceID != filter.ServiceID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (r *memRepo) ListDiscussions(_ context.Context, requestID uuid.UUID) ([]DiscussionEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DiscussionEntry(nil), r.discussions[requestID]...), nil
}

func (r *memRepo) InsertRequest(_ context.Context, rec RequestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := rec
	r.requests[rec.ID] = &stored
	return nil
}

func (r *memRepo) ApplyTransition(_ context.Context, rec RequestRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[rec.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != rec.Version {
		return ErrInvalidTransition
	}
	stored.Status = rec.Status
	stored.Motif = rec.Motif
	stored.DecidedBy = rec.DecidedBy
	stored.DecidedAt = rec.DecidedAt
	stored.Version++
	return nil
}

func (r *memRepo) InsertDiscussion(_ context.Context, requestID uuid.UUID, entry DiscussionEntry) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextEntryID++
	entry.ID = r.nextEntryID
	r.discussions[requestID] = append(r.discussions[requestID], entry)
	return entry.ID, nil
}

func (r *memRepo) SetFicheRef(_ context.Context, requestID uuid.UUID, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[requestID]
	if !ok {
		return ErrNotFound
	}
	stored.FicheRef = ref
	return nil
}

type memOrg struct{}

func (memOrg) Employee(_ context.Context, id int64) (Requester, error) {
	return Requester{ID: id, FullName: "Moussa Ndiaye", Email: "moussa@horizon.example", ServiceID: 3, ServiceName: "Comptabilité"}, nil
}

func (memOrg) Chef(_ context.Context, serviceID int64) (Approver, error) {
	return Approver{ID: 7, FullName: "Awa Diallo", ServiceID: serviceID}, nil
}

func (memOrg) LeaveTypeLabel(_ context.Context, _ int64) (string, error) {
	return "Congé annuel", nil
}

type memAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *memAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.logs))
	for _, l := range a.logs {
		out = append(out, l.Action)
	}
	return out
}

type memNotifier struct {
	mu        sync.Mutex
	decisions []RequestRecord
	fiches    []uuid.UUID
}

func (n *memNotifier) NotifyDecision(_ context.Context, rec RequestRecord) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decisions = append(n.decisions, rec)
	return nil
}

func (n *memNotifier) EnqueueFiche(_ context.Context, id uuid.UUID) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fiches = append(n.fiches, id)
	return nil
}

type memMetrics struct {
	mu       sync.Mutex
	observed map[Action]int
}

func (m *memMetrics) ObserveAction(action Action, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.observed == nil {
		m.observed = make(map[Action]int)
	}
	m.observed[action]++
}

type serviceFixture struct {
	svc      *Service
	repo     *memRepo
	audit    *memAudit
	notifier *memNotifier
	metrics  *memMetrics
}

func newFixture() serviceFixture {
	repo := newMemRepo()
	audit := &memAudit{}
	notifier := &memNotifier{}
	metrics := &memMetrics{}
	return serviceFixture{
		svc:      NewService(repo, memOrg{}, audit, notifier, metrics, nil),
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		metrics:  metrics,
	}
}

var (
	employee = ActorContext{ID: 12, Role: RoleEmployee, ServiceID: 3}
	chef     = ActorContext{ID: 7, Role: RoleChef, ServiceID: 3}
	hr       = ActorContext{ID: 1, Role: RoleHR}
)

func createInput() CreateInput {
	return CreateInput{
		LeaveTypeID: 2,
		Motif:       "Vacances familiales",
		Start:       time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
	}
}

func TestServiceCreate(t *testing.T) {
	f := newFixture()

	rec, err := f.svc.Create(context.Background(), employee, createInput())
	require.NoError(t, err)
	require.Equal(t, StatusPending, rec.Status)
	require.Equal(t, 4, rec.Period.DayCount, "inclusive span 13..16 January")
	require.Equal(t, int64(1), rec.Version)
	require.Equal(t, "Congé annuel", rec.LeaveType)
	require.Equal(t, int64(7), rec.Approver.ID)
	require.Equal(t, []string{"CONGE_CREATE"}, f.audit.actions())

	stored, err := f.repo.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, stored.Status)
}

func TestServiceCreateRejectsBadInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	reversed := createInput()
	reversed.Start, reversed.End = reversed.End, reversed.Start
	_, err := f.svc.Create(ctx, employee, reversed)
	require.ErrorIs(t, err, ErrValidation)

	wrongCount := createInput()
	wrongCount.DayCount = 3
	_, err = f.svc.Create(ctx, employee, wrongCount)
	require.ErrorIs(t, err, ErrValidation, "client day count must match the server computed span")

	matching := createInput()
	matching.DayCount = 4
	_, err = f.svc.Create(ctx, employee, matching)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, chef, createInput())
	require.ErrorIs(t, err, ErrForbidden, "chefs do not file requests")

	require.Empty(t, f.notifier.decisions)
}

func TestServiceApprove(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, chef, rec.ID, "")
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, int64(2), approved.Version)
	require.Empty(t, approved.Discussions, "approval without comment leaves the thread untouched")
	require.NotNil(t, approved.DecidedBy)
	require.Equal(t, chef.ID, *approved.DecidedBy)
	require.Len(t, f.notifier.decisions, 1)

	// Second approval sees the new status.
	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestServiceApproveWithComment(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	approved, err := f.svc.Approve(ctx, chef, rec.ID, "Validé, bon congé")
	require.NoError(t, err)
	require.Len(t, approved.Discussions, 1)
	require.Equal(t, "Validé, bon congé", approved.Discussions[0].Message)
	require.Equal(t, RoleChef, approved.Discussions[0].AuthorRole)
	require.NotZero(t, approved.Discussions[0].ID)
}

func TestServiceApproveAuthorization(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, employee, rec.ID, "")
	require.ErrorIs(t, err, ErrForbidden)

	otherChef := ActorContext{ID: 99, Role: RoleChef, ServiceID: 5}
	_, err = f.svc.Approve(ctx, otherChef, rec.ID, "")
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Approve(ctx, hr, rec.ID, "")
	require.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.Get(ctx, employee, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status, "failed decisions leave the record pending")
}

func TestServiceRejectRequiresMotif(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	_, err = f.svc.Reject(ctx, chef, rec.ID, "   ")
	require.ErrorIs(t, err, ErrValidation)

	got, err := f.svc.Get(ctx, employee, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, got.Status)
	require.Empty(t, f.notifier.decisions)
}

func TestServiceReject(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, chef, rec.ID, "Staffing shortage")
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status)
	require.Equal(t, "Staffing shortage", rejected.Motif)
	require.Len(t, f.notifier.decisions, 1)

	_, err = f.svc.Revoke(ctx, chef, rec.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "only approved requests can be revoked")
}

func TestServiceRevoke(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	_, err = f.svc.Revoke(ctx, chef, rec.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "pending requests were never approved")

	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.NoError(t, err)

	revoked, err := f.svc.Revoke(ctx, chef, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRevoked, revoked.Status)
	require.Equal(t, int64(3), revoked.Version)
	require.Equal(t, []string{"CONGE_CREATE", "CONGE_APPROVE", "CONGE_REVOKE"}, f.audit.actions())
}

func TestServiceDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, employee, rec.ID))

	_, err = f.svc.Get(ctx, employee, rec.ID)
	require.ErrorIs(t, err, ErrNotFound, "deleted requests vanish from reads")

	list, total, err := f.svc.List(ctx, hr, ListFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)
}

func TestServiceDeleteApprovedFails(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.NoError(t, err)

	err = f.svc.Delete(ctx, employee, rec.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "approved requests are history")

	otherEmployee := ActorContext{ID: 50, Role: RoleEmployee, ServiceID: 3}
	err = f.svc.Delete(ctx, otherEmployee, rec.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestServiceStaleVersionConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	// A concurrent decision bumps the stored version behind our back.
	stale, err := f.repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.NoError(t, err)

	stale.Status = StatusRejected
	err = f.repo.ApplyTransition(ctx, stale)
	require.ErrorIs(t, err, ErrInvalidTransition, "stale snapshot must not overwrite the newer decision")
}

func TestServiceListScoping(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)
	other := ActorContext{ID: 50, Role: RoleEmployee, ServiceID: 3}
	_, err = f.svc.Create(ctx, other, createInput())
	require.NoError(t, err)

	mine, total, err := f.svc.List(ctx, employee, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, employee.ID, mine[0].Requester.ID)

	_, total, err = f.svc.List(ctx, chef, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total, "chef sees the whole service")

	_, total, err = f.svc.List(ctx, hr, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)

	_, _, err = f.svc.List(ctx, ActorContext{Role: Role("INCONNU")}, ListFilter{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestServiceDiscussions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	first, err := f.svc.AppendDiscussion(ctx, employee, rec.ID, "Pouvez-vous traiter avant vendredi ?", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "Moussa Ndiaye", first.AuthorName)

	second, err := f.svc.AppendDiscussion(ctx, chef, rec.ID, "Je regarde demain", time.Time{})
	require.NoError(t, err)
	require.Equal(t, "Awa Diallo", second.AuthorName)
	require.Greater(t, second.ID, first.ID)

	_, err = f.svc.AppendDiscussion(ctx, employee, rec.ID, "", time.Time{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AppendDiscussion(ctx, hr, rec.ID, "note RH", time.Time{})
	require.ErrorIs(t, err, ErrForbidden, "HR reads but never writes")

	thread, err := f.svc.Discussions(ctx, employee, rec.ID)
	require.NoError(t, err)
	require.Equal(t, 2, thread.Len())
	var messages []string
	for e := range thread.All() {
		messages = append(messages, e.Message)
	}
	require.Equal(t, []string{"Pouvez-vous traiter avant vendredi ?", "Je regarde demain"}, messages)
}

func TestServiceRequestFiche(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.RequestFiche(ctx, employee, rec.ID))
	require.Equal(t, []uuid.UUID{rec.ID}, f.notifier.fiches)

	stranger := ActorContext{ID: 99, Role: RoleEmployee, ServiceID: 3}
	require.ErrorIs(t, f.svc.RequestFiche(ctx, stranger, rec.ID), ErrForbidden)
}

func TestServiceSetFicheRef(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.SetFicheRef(ctx, rec.ID, "fiches/"+rec.ID.String()+".pdf"))
	got, err := f.svc.Get(ctx, employee, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "fiches/"+rec.ID.String()+".pdf", got.FicheRef)
}

func TestServiceObservesActions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	rec, err := f.svc.Create(ctx, employee, createInput())
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, chef, rec.ID, "")
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.Equal(t, 1, f.metrics.observed[ActionCreate])
	require.Equal(t, 2, f.metrics.observed[ActionApprove], "failures are observed too")
}

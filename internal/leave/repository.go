package leave

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horizon-rh/horizon-rh/internal/platform/db"
)

// TxRepository exposes the mutations the service performs inside one
// transaction, so a transition and its discussion entry commit or roll back
// together.
type TxRepository interface {
	InsertRequest(ctx context.Context, rec RequestRecord) error
	ApplyTransition(ctx context.Context, rec RequestRecord) error
	InsertDiscussion(ctx context.Context, requestID uuid.UUID, entry DiscussionEntry) (int64, error)
	SetFicheRef(ctx context.Context, requestID uuid.UUID, ref string) error
}

// ListFilter narrows request listings. Zero values mean "no constraint";
// the service fills the scoping fields from the actor's role.
type ListFilter struct {
	RequesterID int64
	ServiceID   int64
	Status      Status
	Limit       int
	Offset      int
}

// Repository provides PostgreSQL backed persistence for leave requests.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

const requestColumns = `id, requester_id, requester_name, requester_email, service_id, service_name,
leave_type_id, leave_type, start_date, end_date, day_count, motif, status,
approver_id, approver_name, approver_service_id, decided_by, decided_at,
fiche_ref, version, created_at`

// Get returns a request with its discussion thread. Deleted requests are no
// longer retrievable.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (RequestRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+`
FROM leave_requests WHERE id=$1 AND status <> $2`, id, string(StatusDeleted))
	rec, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RequestRecord{}, ErrNotFound
		}
		return RequestRecord{}, err
	}
	entries, err := r.ListDiscussions(ctx, id)
	if err != nil {
		return RequestRecord{}, err
	}
	rec.Discussions = entries
	return rec, nil
}

// List returns requests matching filter, newest first, plus the total count.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]RequestRecord, int, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + requestColumns + ` FROM leave_requests WHERE status <> $1`
	countQuery := `SELECT COUNT(*) FROM leave_requests WHERE status <> $1`
	args := []any{string(StatusDeleted)}
	if filter.RequesterID != 0 {
		args = append(args, filter.RequesterID)
		cond := ` AND requester_id=$` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filter.ServiceID != 0 {
		args = append(args, filter.ServiceID)
		cond := ` AND service_id=$` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		cond := ` AND status=$` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, limit, filter.Offset)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var records []RequestRecord
	for rows.Next() {
		rec, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// ListDiscussions returns the thread ordered by posted time, insertion order
// breaking ties.
func (r *Repository) ListDiscussions(ctx context.Context, requestID uuid.UUID) ([]DiscussionEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, author_id, author_name, author_role, message, posted_at
FROM leave_discussions WHERE request_id=$1 ORDER BY posted_at ASC, id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []DiscussionEntry
	for rows.Next() {
		var e DiscussionEntry
		var role string
		if err := rows.Scan(&e.ID, &e.AuthorID, &e.AuthorName, &role, &e.Message, &e.PostedAt); err != nil {
			return nil, err
		}
		e.AuthorRole = Role(role)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *txRepo) InsertRequest(ctx context.Context, rec RequestRecord) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO leave_requests
(id, requester_id, requester_name, requester_email, service_id, service_name,
 leave_type_id, leave_type, start_date, end_date, day_count, motif, status,
 approver_id, approver_name, approver_service_id, version, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		rec.ID, rec.Requester.ID, rec.Requester.FullName, rec.Requester.Email,
		rec.Requester.ServiceID, rec.Requester.ServiceName,
		rec.LeaveTypeID, rec.LeaveType, rec.Period.Start, rec.Period.End, rec.Period.DayCount,
		rec.Motif, string(rec.Status),
		rec.Approver.ID, rec.Approver.FullName, rec.Approver.ServiceID,
		rec.Version, rec.CreatedAt)
	return err
}

// ApplyTransition persists a status change guarded by the version the record
// was read at. Zero rows means another actor got there first; the caller sees
// the same ErrInvalidTransition a stale status check would produce.
func (t *txRepo) ApplyTransition(ctx context.Context, rec RequestRecord) error {
	tag, err := t.tx.Exec(ctx, `UPDATE leave_requests
SET status=$2, motif=$3, decided_by=$4, decided_at=$5, version=version+1
WHERE id=$1 AND version=$6`,
		rec.ID, string(rec.Status), rec.Motif, rec.DecidedBy, rec.DecidedAt, rec.Version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (t *txRepo) InsertDiscussion(ctx context.Context, requestID uuid.UUID, entry DiscussionEntry) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO leave_discussions
(request_id, author_id, author_name, author_role, message, posted_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		requestID, entry.AuthorID, entry.AuthorName, string(entry.AuthorRole), entry.Message, entry.PostedAt).Scan(&id)
	return id, err
}

func (t *txRepo) SetFicheRef(ctx context.Context, requestID uuid.UUID, ref string) error {
	tag, err := t.tx.Exec(ctx, `UPDATE leave_requests SET fiche_ref=$2 WHERE id=$1`, requestID, ref)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (RequestRecord, error) {
	var rec RequestRecord
	var status string
	var motif, ficheRef *string
	var decidedAt *time.Time
	err := row.Scan(&rec.ID, &rec.Requester.ID, &rec.Requester.FullName, &rec.Requester.Email,
		&rec.Requester.ServiceID, &rec.Requester.ServiceName,
		&rec.LeaveTypeID, &rec.LeaveType, &rec.Period.Start, &rec.Period.End, &rec.Period.DayCount,
		&motif, &status,
		&rec.Approver.ID, &rec.Approver.FullName, &rec.Approver.ServiceID,
		&rec.DecidedBy, &decidedAt,
		&ficheRef, &rec.Version, &rec.CreatedAt)
	if err != nil {
		return RequestRecord{}, err
	}
	rec.Status = Status(status)
	if motif != nil {
		rec.Motif = *motif
	}
	if ficheRef != nil {
		rec.FicheRef = *ficheRef
	}
	rec.DecidedAt = decidedAt
	return rec, nil
}


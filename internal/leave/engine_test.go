package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pendingRecord() RequestRecord {
	return RequestRecord{
		Status: StatusPending,
		Approver: Approver{
			ID:       7,
			FullName: "Awa Diallo",
		},
		Period: Period{
			Start:    time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
			End:      time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC),
			DayCount: 4,
		},
	}
}

func TestNextStatusTable(t *testing.T) {
	cases := []struct {
		from   Status
		action Action
		want   Status
		ok     bool
	}{
		{StatusPending, ActionApprove, StatusApproved, true},
		{StatusPending, ActionReject, StatusRejected, true},
		{StatusPending, ActionDelete, StatusDeleted, true},
		{StatusApproved, ActionRevoke, StatusRevoked, true},
		{StatusApproved, ActionApprove, "", false},
		{StatusApproved, ActionReject, "", false},
		{StatusApproved, ActionDelete, "", false},
		{StatusRejected, ActionRevoke, "", false},
		{StatusRejected, ActionDelete, "", false},
		{StatusRevoked, ActionApprove, "", false},
		{StatusPending, ActionRevoke, "", false},
		{StatusPending, ActionRead, "", false},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.from, tc.action)
		if tc.ok {
			require.NoError(t, err, "from=%s action=%s", tc.from, tc.action)
			require.Equal(t, tc.want, got)
		} else {
			require.ErrorIs(t, err, ErrInvalidTransition, "from=%s action=%s", tc.from, tc.action)
		}
	}
}

func TestEngineApprove(t *testing.T) {
	var engine Engine
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	rec, entry, err := engine.Approve(pendingRecord(), 7, "", now)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rec.Status)
	require.Nil(t, entry, "no comment means no discussion entry")
	require.Equal(t, int64(7), *rec.DecidedBy)

	// Approving the approved result surfaces the stale premise.
	_, _, err = engine.Approve(rec, 7, "", now)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngineApproveWithComment(t *testing.T) {
	var engine Engine
	now := time.Now()
	rec, entry, err := engine.Approve(pendingRecord(), 7, "Bon repos", now)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, rec.Status)
	require.NotNil(t, entry)
	require.Equal(t, "Bon repos", entry.Message)
	require.Equal(t, RoleChef, entry.AuthorRole)
	require.Equal(t, "Awa Diallo", entry.AuthorName)
}

func TestEngineRejectRequiresMotif(t *testing.T) {
	var engine Engine
	for _, motif := range []string{"", "   ", "\t\n"} {
		rec, err := engine.Reject(pendingRecord(), 7, motif, time.Now())
		require.ErrorIs(t, err, ErrValidation)
		require.Equal(t, StatusPending, rec.Status, "status must be untouched")
	}
}

func TestEngineReject(t *testing.T) {
	var engine Engine
	rec, err := engine.Reject(pendingRecord(), 7, "Staffing shortage", time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rec.Status)
	require.Equal(t, "Staffing shortage", rec.Motif)
}

func TestEngineRevoke(t *testing.T) {
	var engine Engine

	_, err := engine.Revoke(pendingRecord(), 7, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)

	approved, _, err := engine.Approve(pendingRecord(), 7, "", time.Now())
	require.NoError(t, err)
	revoked, err := engine.Revoke(approved, 7, time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusRevoked, revoked.Status)

	_, err = engine.Revoke(revoked, 7, time.Now())
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEngineDelete(t *testing.T) {
	var engine Engine

	rec, err := engine.Delete(pendingRecord())
	require.NoError(t, err)
	require.Equal(t, StatusDeleted, rec.Status)

	approved, _, err := engine.Approve(pendingRecord(), 7, "", time.Now())
	require.NoError(t, err)
	_, err = engine.Delete(approved)
	require.ErrorIs(t, err, ErrInvalidTransition)

	rejected, err := engine.Reject(pendingRecord(), 7, "absence injustifiée", time.Now())
	require.NoError(t, err)
	_, err = engine.Delete(rejected)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionTargetsAreKnownStatuses(t *testing.T) {
	known := map[Status]bool{
		StatusPending:  true,
		StatusApproved: true,
		StatusRejected: true,
		StatusRevoked:  true,
		StatusDeleted:  true,
	}
	for action, tr := range transitions {
		require.True(t, known[tr.from], "action %s from unknown status", action)
		require.True(t, known[tr.to], "action %s to unknown status", action)
	}
}

func TestDays(t *testing.T) {
	start := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 4, Days(start, end))
	require.Equal(t, 1, Days(start, start))
}

func TestPeriodValidate(t *testing.T) {
	start := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC)

	require.NoError(t, Period{Start: start, End: end, DayCount: 4}.Validate())
	require.ErrorIs(t, Period{Start: start, End: end, DayCount: 3}.Validate(), ErrValidation)
	require.ErrorIs(t, Period{Start: end, End: start, DayCount: 4}.Validate(), ErrValidation)
	require.ErrorIs(t, Period{}.Validate(), ErrValidation)
}

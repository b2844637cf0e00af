package leave

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scopedRecord() RequestRecord {
	rec := pendingRecord()
	rec.Requester = Requester{ID: 12, FullName: "Moussa Ndiaye", ServiceID: 3, ServiceName: "Comptabilité"}
	rec.Approver = Approver{ID: 7, FullName: "Awa Diallo", ServiceID: 3}
	return rec
}

func TestCanTable(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleEmployee, ActionCreate, true},
		{RoleEmployee, ActionDelete, true},
		{RoleEmployee, ActionComment, true},
		{RoleEmployee, ActionRead, true},
		{RoleEmployee, ActionApprove, false},
		{RoleEmployee, ActionReject, false},
		{RoleEmployee, ActionRevoke, false},
		{RoleChef, ActionApprove, true},
		{RoleChef, ActionReject, true},
		{RoleChef, ActionRevoke, true},
		{RoleChef, ActionDelete, true},
		{RoleChef, ActionComment, true},
		{RoleChef, ActionRead, true},
		{RoleChef, ActionCreate, false},
		{RoleHR, ActionRead, true},
		{RoleHR, ActionApprove, false},
		{RoleHR, ActionReject, false},
		{RoleHR, ActionDelete, false},
		{RoleHR, ActionComment, false},
		{Role("INCONNU"), ActionRead, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Can(tc.role, tc.action), "role=%s action=%s", tc.role, tc.action)
	}
}

func TestAuthorizeEmployeeOwnership(t *testing.T) {
	rec := scopedRecord()

	owner := ActorContext{ID: 12, Role: RoleEmployee, ServiceID: 3}
	require.NoError(t, Authorize(owner, ActionDelete, rec))
	require.NoError(t, Authorize(owner, ActionComment, rec))
	require.NoError(t, Authorize(owner, ActionRead, rec))

	other := ActorContext{ID: 99, Role: RoleEmployee, ServiceID: 3}
	require.ErrorIs(t, Authorize(other, ActionDelete, rec), ErrForbidden)
	require.ErrorIs(t, Authorize(other, ActionRead, rec), ErrForbidden)

	// Capability is checked before ownership.
	require.ErrorIs(t, Authorize(owner, ActionApprove, rec), ErrForbidden)
}

func TestAuthorizeChefScoping(t *testing.T) {
	rec := scopedRecord()

	assigned := ActorContext{ID: 7, Role: RoleChef, ServiceID: 3}
	require.NoError(t, Authorize(assigned, ActionApprove, rec))
	require.NoError(t, Authorize(assigned, ActionReject, rec))
	require.NoError(t, Authorize(assigned, ActionRevoke, rec))
	require.NoError(t, Authorize(assigned, ActionRead, rec))

	// Same service but not the assigned approver: may comment and read,
	// never decide.
	colleague := ActorContext{ID: 8, Role: RoleChef, ServiceID: 3}
	require.NoError(t, Authorize(colleague, ActionComment, rec))
	require.NoError(t, Authorize(colleague, ActionRead, rec))
	require.ErrorIs(t, Authorize(colleague, ActionApprove, rec), ErrForbidden)
	require.ErrorIs(t, Authorize(colleague, ActionReject, rec), ErrForbidden)

	foreign := ActorContext{ID: 7, Role: RoleChef, ServiceID: 5}
	require.ErrorIs(t, Authorize(foreign, ActionApprove, rec), ErrForbidden)
	require.ErrorIs(t, Authorize(foreign, ActionComment, rec), ErrForbidden)
	require.ErrorIs(t, Authorize(foreign, ActionRead, rec), ErrForbidden)
}

func TestAuthorizeHR(t *testing.T) {
	rec := scopedRecord()
	hr := ActorContext{ID: 1, Role: RoleHR}

	require.NoError(t, Authorize(hr, ActionRead, rec))
	for _, action := range []Action{ActionApprove, ActionReject, ActionRevoke, ActionDelete, ActionComment} {
		require.ErrorIs(t, Authorize(hr, action, rec), ErrForbidden, "action=%s", action)
	}
}

func TestCanRead(t *testing.T) {
	rec := scopedRecord()

	require.True(t, CanRead(ActorContext{ID: 12, Role: RoleEmployee}, rec))
	require.False(t, CanRead(ActorContext{ID: 13, Role: RoleEmployee}, rec))
	require.True(t, CanRead(ActorContext{ID: 7, Role: RoleChef, ServiceID: 3}, rec))
	require.False(t, CanRead(ActorContext{ID: 7, Role: RoleChef, ServiceID: 4}, rec))
	require.True(t, CanRead(ActorContext{ID: 1, Role: RoleHR}, rec))
	require.False(t, CanRead(ActorContext{ID: 1, Role: Role("INCONNU")}, rec))
}

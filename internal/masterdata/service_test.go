package masterdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/horizon-rh/horizon-rh/internal/leave"
)

// memRepo is an in-memory Repository double.
type memRepo struct {
	directions map[int64]Direction
	services   map[int64]ServiceUnit
	employees  map[int64]Employee
	leaveTypes map[int64]LeaveType
	nextID     int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		directions: make(map[int64]Direction),
		services:   make(map[int64]ServiceUnit),
		employees:  make(map[int64]Employee),
		leaveTypes: make(map[int64]LeaveType),
	}
}

func (r *memRepo) id() int64 {
	r.nextID++
	return r.nextID
}

func (r *memRepo) ListDirections(context.Context) ([]Direction, error) {
	var out []Direction
	for _, d := range r.directions {
		out = append(out, d)
	}
	return out, nil
}

func (r *memRepo) GetDirection(_ context.Context, id int64) (Direction, error) {
	d, ok := r.directions[id]
	if !ok {
		return Direction{}, ErrNotFound
	}
	return d, nil
}

func (r *memRepo) CreateDirection(_ context.Context, d Direction) (Direction, error) {
	d.ID = r.id()
	r.directions[d.ID] = d
	return d, nil
}

func (r *memRepo) UpdateDirection(_ context.Context, id int64, d Direction) error {
	if _, ok := r.directions[id]; !ok {
		return ErrNotFound
	}
	d.ID = id
	r.directions[id] = d
	return nil
}

func (r *memRepo) DeleteDirection(_ context.Context, id int64) error {
	if _, ok := r.directions[id]; !ok {
		return ErrNotFound
	}
	delete(r.directions, id)
	return nil
}

func (r *memRepo) ListServices(_ context.Context, filters ListFilters) ([]ServiceUnit, error) {
	var out []ServiceUnit
	for _, u := range r.services {
		if filters.DirectionID != nil && u.DirectionID != *filters.DirectionID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *memRepo) GetService(_ context.Context, id int64) (ServiceUnit, error) {
	u, ok := r.services[id]
	if !ok {
		return ServiceUnit{}, ErrNotFound
	}
	if u.ChefID != nil {
		if chef, ok := r.employees[*u.ChefID]; ok {
			u.ChefName = chef.FullName
		}
	}
	return u, nil
}

func (r *memRepo) CreateService(_ context.Context, u ServiceUnit) (ServiceUnit, error) {
	u.ID = r.id()
	r.services[u.ID] = u
	return u, nil
}

func (r *memRepo) UpdateService(_ context.Context, id int64, u ServiceUnit) error {
	if _, ok := r.services[id]; !ok {
		return ErrNotFound
	}
	u.ID = id
	r.services[id] = u
	return nil
}

func (r *memRepo) DeleteService(_ context.Context, id int64) error {
	if _, ok := r.services[id]; !ok {
		return ErrNotFound
	}
	delete(r.services, id)
	return nil
}

func (r *memRepo) ListEmployees(_ context.Context, filters ListFilters) ([]Employee, error) {
	var out []Employee
	for _, e := range r.employees {
		if filters.ServiceID != nil && e.ServiceID != *filters.ServiceID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memRepo) GetEmployee(_ context.Context, id int64) (Employee, error) {
	e, ok := r.employees[id]
	if !ok {
		return Employee{}, ErrNotFound
	}
	return e, nil
}

func (r *memRepo) CreateEmployee(_ context.Context, e Employee) (Employee, error) {
	e.ID = r.id()
	r.employees[e.ID] = e
	return e, nil
}

func (r *memRepo) UpdateEmployee(_ context.Context, id int64, e Employee) error {
	if _, ok := r.employees[id]; !ok {
		return ErrNotFound
	}
	e.ID = id
	r.employees[id] = e
	return nil
}

func (r *memRepo) DeactivateEmployee(_ context.Context, id int64) error {
	e, ok := r.employees[id]
	if !ok {
		return ErrNotFound
	}
	e.IsActive = false
	r.employees[id] = e
	return nil
}

func (r *memRepo) ListLeaveTypes(_ context.Context, includeInactive bool) ([]LeaveType, error) {
	var out []LeaveType
	for _, lt := range r.leaveTypes {
		if !includeInactive && !lt.IsActive {
			continue
		}
		out = append(out, lt)
	}
	return out, nil
}

func (r *memRepo) GetLeaveType(_ context.Context, id int64) (LeaveType, error) {
	lt, ok := r.leaveTypes[id]
	if !ok {
		return LeaveType{}, ErrNotFound
	}
	return lt, nil
}

func (r *memRepo) CreateLeaveType(_ context.Context, lt LeaveType) (LeaveType, error) {
	lt.ID = r.id()
	r.leaveTypes[lt.ID] = lt
	return lt, nil
}

func (r *memRepo) UpdateLeaveType(_ context.Context, id int64, lt LeaveType) error {
	if _, ok := r.leaveTypes[id]; !ok {
		return ErrNotFound
	}
	lt.ID = id
	r.leaveTypes[id] = lt
	return nil
}

var (
	hrActor       = leave.ActorContext{ID: 1, Role: leave.RoleHR}
	employeeActor = leave.ActorContext{ID: 12, Role: leave.RoleEmployee, ServiceID: 3}
)

func TestWritesAreHRGated(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.CreateDirection(ctx, employeeActor, Direction{Name: "Finances"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateService(ctx, employeeActor, ServiceUnit{DirectionID: 1, Name: "Comptabilité"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateEmployee(ctx, employeeActor, Employee{FullName: "X", Email: "x@y", ServiceID: 1, Role: "EMPLOYE"})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.CreateLeaveType(ctx, employeeActor, LeaveType{Code: "CA", Label: "Congé annuel"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreateDirection(ctx, hrActor, Direction{Name: "Finances"})
	require.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.CreateDirection(ctx, hrActor, Direction{Name: "  "})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateService(ctx, hrActor, ServiceUnit{Name: "Comptabilité"})
	require.ErrorIs(t, err, ErrValidation, "direction is required")
	_, err = svc.CreateEmployee(ctx, hrActor, Employee{FullName: "X", Email: "x@y", ServiceID: 1, Role: "DIRECTEUR"})
	require.ErrorIs(t, err, ErrValidation, "unknown role")
	_, err = svc.CreateLeaveType(ctx, hrActor, LeaveType{Code: "CA"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateLeaveType(ctx, hrActor, LeaveType{Code: "CA", Label: "Congé annuel", AnnualQuota: -5})
	require.ErrorIs(t, err, ErrValidation, "negative quota")
}

func TestListEmployeesFrenchCollation(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	for _, name := range []string{"Zoé Martin", "Émile Durand", "Agnès Bernard", "élodie Petit"} {
		_, err := svc.CreateEmployee(ctx, hrActor, Employee{FullName: name, Email: name + "@horizon.example", ServiceID: 1, Role: "EMPLOYE"})
		require.NoError(t, err)
	}

	employees, err := svc.ListEmployees(ctx, ListFilters{})
	require.NoError(t, err)
	var names []string
	for _, e := range employees {
		names = append(names, e.FullName)
	}
	// Accented initials collate with their base letter, not after Z.
	require.Equal(t, []string{"Agnès Bernard", "élodie Petit", "Émile Durand", "Zoé Martin"}, names)
}

func TestDeactivateEmployee(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	emp, err := svc.CreateEmployee(ctx, hrActor, Employee{FullName: "Moussa Ndiaye", Email: "moussa@horizon.example", ServiceID: 1, Role: "EMPLOYE"})
	require.NoError(t, err)
	require.True(t, emp.IsActive)

	require.ErrorIs(t, svc.DeactivateEmployee(ctx, employeeActor, emp.ID), ErrForbidden)
	require.NoError(t, svc.DeactivateEmployee(ctx, hrActor, emp.ID))

	got, err := svc.GetEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}

func TestDirectoryAdapter(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()

	dir, err := svc.CreateDirection(ctx, hrActor, Direction{Name: "Finances"})
	require.NoError(t, err)
	unit, err := svc.CreateService(ctx, hrActor, ServiceUnit{DirectionID: dir.ID, Name: "Comptabilité"})
	require.NoError(t, err)
	chef, err := svc.CreateEmployee(ctx, hrActor, Employee{FullName: "Awa Diallo", Email: "awa@horizon.example", ServiceID: unit.ID, Role: "CHEF_SERVICE"})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateService(ctx, hrActor, unit.ID, ServiceUnit{DirectionID: dir.ID, Name: "Comptabilité", ChefID: &chef.ID}))
	emp, err := svc.CreateEmployee(ctx, hrActor, Employee{FullName: "Moussa Ndiaye", Email: "moussa@horizon.example", ServiceID: unit.ID, Role: "EMPLOYE"})
	require.NoError(t, err)
	lt, err := svc.CreateLeaveType(ctx, hrActor, LeaveType{Code: "CA", Label: "Congé annuel"})
	require.NoError(t, err)

	directory := NewDirectory(repo)

	requester, err := directory.Employee(ctx, emp.ID)
	require.NoError(t, err)
	require.Equal(t, "Moussa Ndiaye", requester.FullName)
	require.Equal(t, "Comptabilité", requester.ServiceName)

	approver, err := directory.Chef(ctx, unit.ID)
	require.NoError(t, err)
	require.Equal(t, chef.ID, approver.ID)
	require.Equal(t, "Awa Diallo", approver.FullName)

	label, err := directory.LeaveTypeLabel(ctx, lt.ID)
	require.NoError(t, err)
	require.Equal(t, "Congé annuel", label)

	_, err = directory.Employee(ctx, 999)
	require.ErrorIs(t, err, leave.ErrNotFound)

	require.NoError(t, svc.DeactivateEmployee(ctx, hrActor, emp.ID))
	_, err = directory.Employee(ctx, emp.ID)
	require.ErrorIs(t, err, leave.ErrForbidden, "inactive employees cannot file requests")

	noChef, err := svc.CreateService(ctx, hrActor, ServiceUnit{DirectionID: dir.ID, Name: "Juridique"})
	require.NoError(t, err)
	_, err = directory.Chef(ctx, noChef.ID)
	require.ErrorIs(t, err, leave.ErrValidation, "a service without a chef cannot receive requests")
}

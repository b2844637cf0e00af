package masterdata

import (
	"context"
	"errors"

	"github.com/horizon-rh/horizon-rh/internal/leave"
)

// Directory adapts master data lookups to the lifecycle service's org port.
type Directory struct {
	repo Repository
}

// NewDirectory constructs the adapter.
func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// Employee resolves an active employee into a requester snapshot.
func (d *Directory) Employee(ctx context.Context, id int64) (leave.Requester, error) {
	emp, err := d.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return leave.Requester{}, leave.ErrNotFound
		}
		return leave.Requester{}, err
	}
	if !emp.IsActive {
		return leave.Requester{}, leave.ErrForbidden
	}
	unit, err := d.repo.GetService(ctx, emp.ServiceID)
	if err != nil {
		return leave.Requester{}, err
	}
	return leave.Requester{
		ID:          emp.ID,
		FullName:    emp.FullName,
		Email:       emp.Email,
		ServiceID:   emp.ServiceID,
		ServiceName: unit.Name,
	}, nil
}

// Chef resolves the chef assigned to a service unit.
func (d *Directory) Chef(ctx context.Context, serviceID int64) (leave.Approver, error) {
	unit, err := d.repo.GetService(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return leave.Approver{}, leave.ErrNotFound
		}
		return leave.Approver{}, err
	}
	if unit.ChefID == nil {
		return leave.Approver{}, leave.ErrValidation
	}
	return leave.Approver{
		ID:        *unit.ChefID,
		FullName:  unit.ChefName,
		ServiceID: unit.ID,
	}, nil
}

// LeaveTypeLabel resolves the printable label of an active leave type.
func (d *Directory) LeaveTypeLabel(ctx context.Context, id int64) (string, error) {
	lt, err := d.repo.GetLeaveType(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", leave.ErrValidation
		}
		return "", err
	}
	if !lt.IsActive {
		return "", leave.ErrValidation
	}
	return lt.Label, nil
}

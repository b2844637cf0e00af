package masterdata

import (
	"context"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/horizon-rh/horizon-rh/internal/leave"
)

// Service exposes master data reads to everyone and writes to HR only.
type Service struct {
	repo     Repository
	collator *collate.Collator
}

// NewService constructs the master data service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		collator: collate.New(language.French, collate.IgnoreCase),
	}
}

func writeAllowed(actor leave.ActorContext) error {
	if actor.Role != leave.RoleHR {
		return ErrForbidden
	}
	return nil
}

// ListDirections returns all directions.
func (s *Service) ListDirections(ctx context.Context) ([]Direction, error) {
	return s.repo.ListDirections(ctx)
}

// GetDirection returns one direction.
func (s *Service) GetDirection(ctx context.Context, id int64) (Direction, error) {
	if id <= 0 {
		return Direction{}, ErrValidation
	}
	return s.repo.GetDirection(ctx, id)
}

// CreateDirection registers a direction. HR only.
func (s *Service) CreateDirection(ctx context.Context, actor leave.ActorContext, direction Direction) (Direction, error) {
	if err := writeAllowed(actor); err != nil {
		return Direction{}, err
	}
	if strings.TrimSpace(direction.Name) == "" {
		return Direction{}, ErrValidation
	}
	return s.repo.CreateDirection(ctx, direction)
}

// UpdateDirection renames a direction. HR only.
func (s *Service) UpdateDirection(ctx context.Context, actor leave.ActorContext, id int64, direction Direction) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 || strings.TrimSpace(direction.Name) == "" {
		return ErrValidation
	}
	return s.repo.UpdateDirection(ctx, id, direction)
}

// DeleteDirection removes a direction. HR only.
func (s *Service) DeleteDirection(ctx context.Context, actor leave.ActorContext, id int64) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrValidation
	}
	return s.repo.DeleteDirection(ctx, id)
}

// ListServices returns service units, optionally scoped to a direction.
func (s *Service) ListServices(ctx context.Context, filters ListFilters) ([]ServiceUnit, error) {
	return s.repo.ListServices(ctx, filters)
}

// GetService returns one service unit.
func (s *Service) GetService(ctx context.Context, id int64) (ServiceUnit, error) {
	if id <= 0 {
		return ServiceUnit{}, ErrValidation
	}
	return s.repo.GetService(ctx, id)
}

// CreateService registers a service unit. HR only.
func (s *Service) CreateService(ctx context.Context, actor leave.ActorContext, unit ServiceUnit) (ServiceUnit, error) {
	if err := writeAllowed(actor); err != nil {
		return ServiceUnit{}, err
	}
	if unit.DirectionID <= 0 || strings.TrimSpace(unit.Name) == "" {
		return ServiceUnit{}, ErrValidation
	}
	return s.repo.CreateService(ctx, unit)
}

// UpdateService updates a service unit, including its chef assignment. HR only.
func (s *Service) UpdateService(ctx context.Context, actor leave.ActorContext, id int64, unit ServiceUnit) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 || unit.DirectionID <= 0 || strings.TrimSpace(unit.Name) == "" {
		return ErrValidation
	}
	return s.repo.UpdateService(ctx, id, unit)
}

// DeleteService removes a service unit. HR only.
func (s *Service) DeleteService(ctx context.Context, actor leave.ActorContext, id int64) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrValidation
	}
	return s.repo.DeleteService(ctx, id)
}

// ListEmployees returns employees ordered by name using French collation, so
// accented names sort where a directory reader expects them.
func (s *Service) ListEmployees(ctx context.Context, filters ListFilters) ([]Employee, error) {
	employees, err := s.repo.ListEmployees(ctx, filters)
	if err != nil {
		return nil, err
	}
	s.collator.Sort(byName(employees))
	return employees, nil
}

// GetEmployee returns one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	if id <= 0 {
		return Employee{}, ErrValidation
	}
	return s.repo.GetEmployee(ctx, id)
}

// CreateEmployee registers an employee. HR only.
func (s *Service) CreateEmployee(ctx context.Context, actor leave.ActorContext, employee Employee) (Employee, error) {
	if err := writeAllowed(actor); err != nil {
		return Employee{}, err
	}
	if err := validateEmployee(employee); err != nil {
		return Employee{}, err
	}
	employee.IsActive = true
	return s.repo.CreateEmployee(ctx, employee)
}

// UpdateEmployee updates an employee record. HR only.
func (s *Service) UpdateEmployee(ctx context.Context, actor leave.ActorContext, id int64, employee Employee) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrValidation
	}
	if err := validateEmployee(employee); err != nil {
		return err
	}
	return s.repo.UpdateEmployee(ctx, id, employee)
}

// DeactivateEmployee soft-disables an employee. HR only.
func (s *Service) DeactivateEmployee(ctx context.Context, actor leave.ActorContext, id int64) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 {
		return ErrValidation
	}
	return s.repo.DeactivateEmployee(ctx, id)
}

// ListLeaveTypes returns leave types; inactive ones only on request.
func (s *Service) ListLeaveTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error) {
	return s.repo.ListLeaveTypes(ctx, includeInactive)
}

// CreateLeaveType registers a leave type. HR only.
func (s *Service) CreateLeaveType(ctx context.Context, actor leave.ActorContext, lt LeaveType) (LeaveType, error) {
	if err := writeAllowed(actor); err != nil {
		return LeaveType{}, err
	}
	if strings.TrimSpace(lt.Code) == "" || strings.TrimSpace(lt.Label) == "" || lt.AnnualQuota < 0 {
		return LeaveType{}, ErrValidation
	}
	lt.IsActive = true
	return s.repo.CreateLeaveType(ctx, lt)
}

// UpdateLeaveType updates a leave type. HR only.
func (s *Service) UpdateLeaveType(ctx context.Context, actor leave.ActorContext, id int64, lt LeaveType) error {
	if err := writeAllowed(actor); err != nil {
		return err
	}
	if id <= 0 || strings.TrimSpace(lt.Code) == "" || strings.TrimSpace(lt.Label) == "" || lt.AnnualQuota < 0 {
		return ErrValidation
	}
	return s.repo.UpdateLeaveType(ctx, id, lt)
}

func validateEmployee(e Employee) error {
	if strings.TrimSpace(e.FullName) == "" || strings.TrimSpace(e.Email) == "" || e.ServiceID <= 0 {
		return ErrValidation
	}
	switch leave.Role(e.Role) {
	case leave.RoleEmployee, leave.RoleChef, leave.RoleHR:
		return nil
	}
	return ErrValidation
}

// byName adapts []Employee to the collator's sort interface.
type byName []Employee

func (b byName) Len() int           { return len(b) }
func (b byName) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }
func (b byName) Bytes(i int) []byte { return []byte(b[i].FullName) }

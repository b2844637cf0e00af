package masterdata

import (
	"context"
	"errors"
	"time"
)

// Direction represents a top-level organisational direction.
type Direction struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ServiceUnit represents a service within a direction. The chef de service
// decides on leave requests filed by the unit's employees.
type ServiceUnit struct {
	ID          int64     `json:"id"`
	DirectionID int64     `json:"direction_id"`
	Name        string    `json:"name"`
	ChefID      *int64    `json:"chef_id"`
	ChefName    string    `json:"chef_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Employee represents a member of staff.
type Employee struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	ServiceID int64     `json:"service_id"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LeaveType represents a configurable leave category. AnnualQuota is the
// number of days granted per year, zero meaning unlimited.
type LeaveType struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	AnnualQuota int    `json:"annualQuota"`
	IsActive    bool   `json:"is_active"`
}

// ListFilters represents standard list page filters.
type ListFilters struct {
	Search      string
	ServiceID   *int64
	DirectionID *int64
	IsActive    *bool
	Limit       int
	Offset      int
}

// Repository interface for master data operations.
type Repository interface {
	ListDirections(ctx context.Context) ([]Direction, error)
	GetDirection(ctx context.Context, id int64) (Direction, error)
	CreateDirection(ctx context.Context, direction Direction) (Direction, error)
	UpdateDirection(ctx context.Context, id int64, direction Direction) error
	DeleteDirection(ctx context.Context, id int64) error

	ListServices(ctx context.Context, filters ListFilters) ([]ServiceUnit, error)
	GetService(ctx context.Context, id int64) (ServiceUnit, error)
	CreateService(ctx context.Context, unit ServiceUnit) (ServiceUnit, error)
	UpdateService(ctx context.Context, id int64, unit ServiceUnit) error
	DeleteService(ctx context.Context, id int64) error

	ListEmployees(ctx context.Context, filters ListFilters) ([]Employee, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	CreateEmployee(ctx context.Context, employee Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, id int64, employee Employee) error
	DeactivateEmployee(ctx context.Context, id int64) error

	ListLeaveTypes(ctx context.Context, includeInactive bool) ([]LeaveType, error)
	GetLeaveType(ctx context.Context, id int64) (LeaveType, error)
	CreateLeaveType(ctx context.Context, lt LeaveType) (LeaveType, error)
	UpdateLeaveType(ctx context.Context, id int64, lt LeaveType) error
}

var (
	// ErrNotFound indicates a missing master data record.
	ErrNotFound = errors.New("masterdata: not found")
	// ErrForbidden indicates the actor may not modify master data.
	ErrForbidden = errors.New("masterdata: forbidden")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("masterdata: invalid input")
)

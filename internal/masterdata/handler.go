package masterdata

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/horizon-rh/horizon-rh/internal/leave"
	"github.com/horizon-rh/horizon-rh/internal/platform/httpx"
)

// Handler exposes master data as a JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/directions", func(r chi.Router) {
		r.Get("/", h.listDirections)
		r.Post("/", h.createDirection)
		r.Get("/{id}", h.getDirection)
		r.Put("/{id}", h.updateDirection)
		r.Delete("/{id}", h.deleteDirection)
	})
	r.Route("/services", func(r chi.Router) {
		r.Get("/", h.listServices)
		r.Post("/", h.createService)
		r.Get("/{id}", h.getService)
		r.Put("/{id}", h.updateService)
		r.Delete("/{id}", h.deleteService)
	})
	r.Route("/employes", func(r chi.Router) {
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
		r.Get("/{id}", h.getEmployee)
		r.Put("/{id}", h.updateEmployee)
		r.Delete("/{id}", h.deactivateEmployee)
	})
	r.Route("/types-conge", func(r chi.Router) {
		r.Get("/", h.listLeaveTypes)
		r.Post("/", h.createLeaveType)
		r.Put("/{id}", h.updateLeaveType)
	})
}

type directionRequest struct {
	Name string `json:"name" validate:"required"`
}

type serviceRequest struct {
	DirectionID int64  `json:"directionId" validate:"required"`
	Name        string `json:"name" validate:"required"`
	ChefID      *int64 `json:"chefId"`
}

type employeeRequest struct {
	FullName  string `json:"fullName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	ServiceID int64  `json:"serviceId" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=EMPLOYE CHEF_SERVICE RH"`
	IsActive  *bool  `json:"isActive"`
}

type leaveTypeRequest struct {
	Code        string `json:"code" validate:"required"`
	Label       string `json:"label" validate:"required"`
	AnnualQuota int    `json:"annualQuota" validate:"gte=0"`
	IsActive    *bool  `json:"isActive"`
}

func (h *Handler) listDirections(w http.ResponseWriter, r *http.Request) {
	directions, err := h.service.ListDirections(r.Context())
	if err != nil {
		h.respondError(w, r, err, "list directions")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": directions})
}

func (h *Handler) getDirection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	direction, err := h.service.GetDirection(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "get direction")
		return
	}
	httpx.JSON(w, http.StatusOK, direction)
}

func (h *Handler) createDirection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload directionRequest
	if !h.decode(w, r, &payload) {
		return
	}
	direction, err := h.service.CreateDirection(r.Context(), actor, Direction{Name: payload.Name})
	if err != nil {
		h.respondError(w, r, err, "create direction")
		return
	}
	httpx.JSON(w, http.StatusCreated, direction)
}

func (h *Handler) updateDirection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload directionRequest
	if !h.decode(w, r, &payload) {
		return
	}
	if err := h.service.UpdateDirection(r.Context(), actor, id, Direction{Name: payload.Name}); err != nil {
		h.respondError(w, r, err, "update direction")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) deleteDirection(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteDirection(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "delete direction")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	var filters ListFilters
	if raw := r.URL.Query().Get("directionId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "directionId invalide")
			return
		}
		filters.DirectionID = &id
	}
	units, err := h.service.ListServices(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err, "list services")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": units})
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	unit, err := h.service.GetService(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "get service")
		return
	}
	httpx.JSON(w, http.StatusOK, unit)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload serviceRequest
	if !h.decode(w, r, &payload) {
		return
	}
	unit, err := h.service.CreateService(r.Context(), actor, ServiceUnit{
		DirectionID: payload.DirectionID,
		Name:        payload.Name,
		ChefID:      payload.ChefID,
	})
	if err != nil {
		h.respondError(w, r, err, "create service")
		return
	}
	httpx.JSON(w, http.StatusCreated, unit)
}

func (h *Handler) updateService(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload serviceRequest
	if !h.decode(w, r, &payload) {
		return
	}
	err := h.service.UpdateService(r.Context(), actor, id, ServiceUnit{
		DirectionID: payload.DirectionID,
		Name:        payload.Name,
		ChefID:      payload.ChefID,
	})
	if err != nil {
		h.respondError(w, r, err, "update service")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) deleteService(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteService(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "delete service")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	var filters ListFilters
	filters.Search = r.URL.Query().Get("q")
	if raw := r.URL.Query().Get("serviceId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "serviceId invalide")
			return
		}
		filters.ServiceID = &id
	}
	employees, err := h.service.ListEmployees(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err, "list employees")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": employees})
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	employee, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err, "get employee")
		return
	}
	httpx.JSON(w, http.StatusOK, employee)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload employeeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	employee, err := h.service.CreateEmployee(r.Context(), actor, Employee{
		FullName:  payload.FullName,
		Email:     payload.Email,
		ServiceID: payload.ServiceID,
		Role:      payload.Role,
	})
	if err != nil {
		h.respondError(w, r, err, "create employee")
		return
	}
	httpx.JSON(w, http.StatusCreated, employee)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload employeeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	err := h.service.UpdateEmployee(r.Context(), actor, id, Employee{
		FullName:  payload.FullName,
		Email:     payload.Email,
		ServiceID: payload.ServiceID,
		Role:      payload.Role,
		IsActive:  active,
	})
	if err != nil {
		h.respondError(w, r, err, "update employee")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) deactivateEmployee(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeactivateEmployee(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "deactivate employee")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listLeaveTypes(w http.ResponseWriter, r *http.Request) {
	includeInactive := r.URL.Query().Get("all") == "true"
	types, err := h.service.ListLeaveTypes(r.Context(), includeInactive)
	if err != nil {
		h.respondError(w, r, err, "list leave types")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": types})
}

func (h *Handler) createLeaveType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var payload leaveTypeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	lt, err := h.service.CreateLeaveType(r.Context(), actor, LeaveType{Code: payload.Code, Label: payload.Label, AnnualQuota: payload.AnnualQuota})
	if err != nil {
		h.respondError(w, r, err, "create leave type")
		return
	}
	httpx.JSON(w, http.StatusCreated, lt)
}

func (h *Handler) updateLeaveType(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var payload leaveTypeRequest
	if !h.decode(w, r, &payload) {
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}
	err := h.service.UpdateLeaveType(r.Context(), actor, id, LeaveType{Code: payload.Code, Label: payload.Label, AnnualQuota: payload.AnnualQuota, IsActive: active})
	if err != nil {
		h.respondError(w, r, err, "update leave type")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (leave.ActorContext, bool) {
	actor, ok := leave.ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session requise")
		return leave.ActorContext{}, false
	}
	return actor, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "identifiant invalide")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := httpx.DecodeJSON(r, payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "corps de requête invalide")
		return false
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "requête invalide")
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "réservé aux RH")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "enregistrement introuvable")
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

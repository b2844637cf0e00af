package leave

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/horizon-rh/horizon-rh/internal/platform/httpx"
	"github.com/horizon-rh/horizon-rh/internal/shared"
)

const dateLayout = "2006-01-02"

// FichePort renders the fiche document for a request snapshot.
type FichePort interface {
	RenderPDF(ctx context.Context, rec RequestRecord) ([]byte, error)
}

// Handler exposes the leave lifecycle as a JSON API.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	fiche    FichePort
	validate *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, fiche FichePort) *Handler {
	return &Handler{logger: logger, service: service, fiche: fiche, validate: validator.New()}
}

// MountRoutes registers the leave routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Post("/{id}/approve", h.approve)
	r.Post("/{id}/reject", h.reject)
	r.Post("/{id}/revoke", h.revoke)
	r.Delete("/{id}", h.remove)
	r.Get("/{id}/discussions", h.listDiscussions)
	r.Post("/{id}/discussions", h.appendDiscussion)
	r.Get("/{id}/fiche", h.renderFiche)
	r.Post("/{id}/fiche", h.enqueueFiche)
}

type createRequest struct {
	LeaveTypeID int64  `json:"leaveTypeId" validate:"required"`
	LeaveType   string `json:"leaveType"`
	Motif       string `json:"motif"`
	StartDate   string `json:"startDate" validate:"required"`
	EndDate     string `json:"endDate" validate:"required"`
	DayCount    int    `json:"dayCount"`
}

type approveRequest struct {
	Commentaire string `json:"commentaire"`
}

type rejectRequest struct {
	Motif string `json:"motif" validate:"required"`
}

type discussionRequest struct {
	Message  string `json:"message" validate:"required"`
	PostedAt string `json:"postedAt"`
}

type periodResponse struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	DayCount  int    `json:"dayCount"`
}

type requestResponse struct {
	ID          string               `json:"id"`
	Requester   string               `json:"demandeur"`
	Service     string               `json:"service"`
	LeaveType   string               `json:"typeConge"`
	Period      periodResponse       `json:"periode"`
	Motif       string               `json:"motif,omitempty"`
	Status      string               `json:"statut"`
	Approver    string               `json:"approbateur"`
	FicheRef    string               `json:"ficheRef,omitempty"`
	Version     int64                `json:"version"`
	CreatedAt   time.Time            `json:"createdAt"`
	Discussions []discussionResponse `json:"discussions,omitempty"`
	DecidedAt   *time.Time           `json:"decidedAt,omitempty"`
}

type discussionResponse struct {
	ID       int64     `json:"id"`
	Author   string    `json:"auteur"`
	Role     string    `json:"role"`
	Message  string    `json:"message"`
	PostedAt time.Time `json:"postedAt"`
}

func toResponse(rec RequestRecord) requestResponse {
	resp := requestResponse{
		ID:        rec.ID.String(),
		Requester: rec.Requester.FullName,
		Service:   rec.Requester.ServiceName,
		LeaveType: rec.LeaveType,
		Period: periodResponse{
			StartDate: rec.Period.Start.Format(dateLayout),
			EndDate:   rec.Period.End.Format(dateLayout),
			DayCount:  rec.Period.DayCount,
		},
		Motif:     rec.Motif,
		Status:    string(rec.Status),
		Approver:  rec.Approver.FullName,
		FicheRef:  rec.FicheRef,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		DecidedAt: rec.DecidedAt,
	}
	for entry := range ThreadOf(rec).All() {
		resp.Discussions = append(resp.Discussions, toDiscussionResponse(entry))
	}
	return resp
}

func toDiscussionResponse(entry DiscussionEntry) discussionResponse {
	return discussionResponse{
		ID:       entry.ID,
		Author:   entry.AuthorName,
		Role:     string(entry.AuthorRole),
		Message:  entry.Message,
		PostedAt: entry.PostedAt,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session requise")
		return
	}
	var payload createRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "corps de requête invalide")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	start, err := time.Parse(dateLayout, payload.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "startDate invalide")
		return
	}
	end, err := time.Parse(dateLayout, payload.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "endDate invalide")
		return
	}
	rec, err := h.service.Create(r.Context(), actor, CreateInput{
		LeaveTypeID: payload.LeaveTypeID,
		Motif:       payload.Motif,
		Start:       start,
		End:         end,
		DayCount:    payload.DayCount,
	})
	if err != nil {
		h.respondError(w, r, err, "create request")
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(rec))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session requise")
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("parPage"))
	if limit <= 0 {
		limit = 20
	}
	filter := ListFilter{
		Status: Status(r.URL.Query().Get("statut")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	records, total, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, r, err, "list requests")
		return
	}
	items := make([]requestResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toResponse(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, r, err, "get request")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var payload approveRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &payload); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "corps de requête invalide")
			return
		}
	}
	rec, err := h.service.Approve(r.Context(), actor, id, payload.Commentaire)
	if err != nil {
		h.respondError(w, r, err, "approve request")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var payload rejectRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "corps de requête invalide")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "motif requis")
		return
	}
	rec, err := h.service.Reject(r.Context(), actor, id, payload.Motif)
	if err != nil {
		h.respondError(w, r, err, "reject request")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Revoke(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, r, err, "revoke request")
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(rec))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "delete request")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"statut": string(StatusDeleted)})
}

func (h *Handler) listDiscussions(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	thread, err := h.service.Discussions(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, r, err, "list discussions")
		return
	}
	items := make([]discussionResponse, 0, thread.Len())
	for entry := range thread.All() {
		items = append(items, toDiscussionResponse(entry))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) appendDiscussion(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	var payload discussionRequest
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "corps de requête invalide")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "message requis")
		return
	}
	var postedAt time.Time
	if payload.PostedAt != "" {
		parsed, err := time.Parse(time.RFC3339, payload.PostedAt)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "postedAt invalide")
			return
		}
		postedAt = parsed
	}
	entry, err := h.service.AppendDiscussion(r.Context(), actor, id, payload.Message, postedAt)
	if err != nil {
		h.respondError(w, r, err, "append discussion")
		return
	}
	httpx.JSON(w, http.StatusCreated, toDiscussionResponse(entry))
}

func (h *Handler) renderFiche(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if h.fiche == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Unavailable", "rendu de fiche non configuré")
		return
	}
	rec, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		h.respondError(w, r, err, "get request for fiche")
		return
	}
	pdf, err := h.fiche.RenderPDF(r.Context(), rec)
	if err != nil {
		h.logger.Error("render fiche", slog.Any("error", err), slog.String("id", id.String()))
		httpx.Problem(w, http.StatusBadGateway, "Render Failed", "")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="fiche-conge-`+id.String()+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *Handler) enqueueFiche(w http.ResponseWriter, r *http.Request) {
	actor, id, ok := h.actorAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.RequestFiche(r.Context(), actor, id); err != nil {
		h.respondError(w, r, err, "enqueue fiche")
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"statut": "EN_COURS"})
}

func (h *Handler) actorAndID(w http.ResponseWriter, r *http.Request) (ActorContext, uuid.UUID, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session requise")
		return ActorContext{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "identifiant invalide")
		return ActorContext{}, uuid.Nil, false
	}
	return actor, id, true
}

// respondError maps the lifecycle error taxonomy onto HTTP problem responses:
// validation near the field, permission as a blocking notice, transition
// conflicts as a "please refresh".
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "requête invalide")
	case errors.Is(err, ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Conflict", "statut modifié entre-temps, veuillez actualiser")
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "action non autorisée")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "demande introuvable")
	default:
		h.logger.Error(op, slog.Any("error", err), slog.String("path", r.URL.Path))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/turbovets/taskboard/internal/observability"
	"github.com/turbovets/taskboard/internal/platform/httpx"
	"github.com/turbovets/taskboard/internal/rbac"
)

// Handler exposes the task endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	observer  Observer
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds a Handler. observer and metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, observer Observer, metrics *observability.Metrics) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		observer:  observer,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// MountRoutes registers task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTasks)
	r.Post("/", h.createTask)
	r.Get("/board", h.board)
	r.Get("/by-assignee", h.byAssignee)
	r.Get("/{id}", h.getTask)
	r.Put("/{id}", h.updateTask)
	r.Delete("/{id}", h.deleteTask)
	r.Put("/{id}/assign", h.assignTask)
}

type createTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description" validate:"max=10000"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *string    `json:"assigneeId" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=todo in_progress review done"`
	Priority    *string    `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *string    `json:"assigneeId" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"dueDate"`
}

type assignTaskRequest struct {
	AssigneeID string `json:"assigneeId" validate:"omitempty,uuid"`
}

func (req updateTaskRequest) input() UpdateInput {
	in := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}
	if req.Status != nil {
		st := Status(*req.Status)
		in.Status = &st
	}
	if req.Priority != nil {
		pr := Priority(*req.Priority)
		in.Priority = &pr
	}
	return in
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListTasks(r.Context(), actor)
	h.observe("list", err)
	if err != nil {
		h.fail(w, "list tasks failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	columns, err := h.service.Board(r.Context(), actor)
	h.observe("board", err)
	if err != nil {
		h.fail(w, "load board failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, columns)
}

func (h *Handler) byAssignee(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	list, err := h.service.ListTasks(r.Context(), actor)
	h.observe("by_assignee", err)
	if err != nil {
		h.fail(w, "group tasks failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, GroupByAssignee(list))
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	task, err := h.service.CreateTask(r.Context(), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    Priority(req.Priority),
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	}, actor)
	h.observe("create", err)
	if err != nil {
		h.fail(w, "create task failed", err)
		return
	}
	h.notify(r.Context(), Event{Action: ActionCreated, Actor: actor}, task)
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	task, err := h.service.GetTask(r.Context(), chi.URLParam(r, "id"), actor)
	h.observe("get", err)
	if err != nil {
		h.fail(w, "get task failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	previous, task, err := h.service.update(r.Context(), chi.URLParam(r, "id"), req.input(), actor)
	h.observe("update", err)
	if err != nil {
		h.fail(w, "update task failed", err)
		return
	}
	h.notify(r.Context(), Event{Action: ActionUpdated, Actor: actor, PreviousAssigneeID: previous}, task)
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := h.service.DeleteTask(r.Context(), id, actor)
	h.observe("delete", err)
	if err != nil {
		h.fail(w, "delete task failed", err)
		return
	}
	h.notify(r.Context(), Event{Action: ActionDeleted, Actor: actor}, &Task{ID: id})
	httpx.NoContent(w)
}

func (h *Handler) assignTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req assignTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := httpx.Validate(h.validator, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	previous, task, err := h.service.assign(r.Context(), chi.URLParam(r, "id"), req.AssigneeID, actor)
	h.observe("assign", err)
	if err != nil {
		h.fail(w, "assign task failed", err)
		return
	}
	h.notify(r.Context(), Event{Action: ActionAssigned, Actor: actor, PreviousAssigneeID: previous}, task)
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (rbac.Principal, bool) {
	actor, ok := rbac.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
	}
	return actor, ok
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if httpx.StatusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	} else {
		h.logger.Debug(msg, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) observe(op string, err error) {
	h.metrics.ObserveTaskOperation(op, httpx.StatusFor(err))
}

func (h *Handler) notify(ctx context.Context, ev Event, task *Task) {
	if h.observer == nil || task == nil {
		return
	}
	ev.Task = *task
	h.observer.TaskChanged(ctx, ev)
}

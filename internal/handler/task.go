package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskflow/internal/command"
	"taskflow/internal/model"
	"taskflow/internal/relay"
	"taskflow/pkg/respond"
)

// TaskHandler - HTTP-фасад над командами task.* на шине
type TaskHandler struct {
	bus    relay.Relay
	logger *zap.Logger
}

func NewTaskHandler(bus relay.Relay, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{bus: bus, logger: logger}
}

func (h *TaskHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{taskId}/comments", h.CreateComment)
	r.Get("/{taskId}/comments", h.ListComments)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return
	}

	var data command.CreateTaskData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		h.logger.Error("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return
	}

	userID, _ := UserFrom(r.Context())
	var task model.Task
	err := h.bus.Request(r.Context(), command.TaskCreate, command.CreateTaskPayload{
		Data:   data,
		UserID: &userID,
	}, &task)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/tasks/"+task.ID.String())
	respond.JSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserFrom(r.Context())
	filter := filterFromQuery(r)

	var page model.TaskPage
	err := h.bus.Request(r.Context(), command.TaskList, command.ListTasksPayload{
		UserID:  &userID,
		Filters: filter,
	}, &page)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, page)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	userID, _ := UserFrom(r.Context())
	var task model.Task
	err = h.bus.Request(r.Context(), command.TaskGet, command.GetTaskPayload{
		ID:     id,
		UserID: &userID,
	}, &task)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	var data command.UpdateTaskData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	userID, _ := UserFrom(r.Context())
	var task model.Task
	err = h.bus.Request(r.Context(), command.TaskUpdate, command.UpdateTaskPayload{
		ID:     id,
		Data:   data,
		UserID: &userID,
	}, &task)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	userID, _ := UserFrom(r.Context())
	err = h.bus.Request(r.Context(), command.TaskDelete, command.DeleteTaskPayload{
		ID:     id,
		UserID: &userID,
	}, nil)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	userID, _ := UserFrom(r.Context())
	payload := command.CreateCommentPayload{TaskID: taskID, UserID: userID}
	if err := json.NewDecoder(r.Body).Decode(&payload.Data); err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid json")
		return
	}

	var comment model.Comment
	if err := h.bus.Request(r.Context(), command.TaskCommentCreate, payload, &comment); err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusCreated, comment)
}

func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	taskID, err := uuid.Parse(chi.URLParam(r, "taskId"))
	if err != nil {
		respond.Error(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	userID, _ := UserFrom(r.Context())
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	var result model.CommentPage
	err = h.bus.Request(r.Context(), command.TaskCommentList, command.ListCommentsPayload{
		TaskID: taskID,
		UserID: userID,
		Page:   page,
		Size:   size,
	}, &result)
	if err != nil {
		respond.AppError(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, result)
}

func filterFromQuery(r *http.Request) model.TaskFilter {
	var filter model.TaskFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status := model.Status(s)
		filter.Status = &status
	}
	if p := q.Get("priority"); p != "" {
		priority := model.Priority(p)
		filter.Priority = &priority
	}
	filter.Search = q.Get("search")
	filter.SortBy = model.SortKey(q.Get("sortBy"))
	filter.SortOrder = q.Get("sortOrder")
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Size, _ = strconv.Atoi(q.Get("size"))
	return filter
}

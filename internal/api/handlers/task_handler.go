package handlers

import (
	"log/slog"
	"net/http"

	"github.com/TWRT/taskdesk/internal/models"
	"github.com/TWRT/taskdesk/internal/service"
)

type TaskHandler struct {
	taskService *service.TaskService
	logger      *slog.Logger
}

func NewTaskHandler(taskService *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskService: taskService, logger: logger}
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := models.TaskFilter{
		Status: models.TaskStatus(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("search"),
	}
	tasks, err := h.taskService.List(r.Context(), currentUser(r), filter)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in models.TaskInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	task, err := h.taskService.Create(r.Context(), currentUser(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	task, err := h.taskService.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var patch models.TaskPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	task, err := h.taskService.Update(r.Context(), currentUser(r), id, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.taskService.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	var in models.CommentInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comment, err := h.taskService.AddComment(r.Context(), currentUser(r), id, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *TaskHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	comments, err := h.taskService.Comments(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *TaskHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	history, err := h.taskService.History(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

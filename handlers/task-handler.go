package handlers

import (
	"net/http"

	"trello-project/microservices/assignment-service/services"

	"github.com/gorilla/mux"
)

const defaultTaskLimit = 100

type TaskHandler struct {
	service *services.Coordinator
}

func NewTaskHandler(service *services.Coordinator) *TaskHandler {
	return &TaskHandler{service: service}
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	q, count, err := parseListQuery(r.URL.Query(), defaultTaskLimit)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if count {
		n, err := h.service.CountTasks(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, "OK", n)
		return
	}

	tasks, err := h.service.ListTasks(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "OK", tasks)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTaskInput(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	task, err := h.service.CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Task created successfully", task)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	projection, err := parseSelect(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	task, err := h.service.GetTask(r.Context(), mux.Vars(r)["id"], projection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "OK", task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTaskInput(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	task, err := h.service.UpdateTask(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task updated successfully", task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.DeleteTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Task deleted successfully", task)
}

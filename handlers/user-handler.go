package handlers

import (
	"net/http"

	"trello-project/microservices/assignment-service/services"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	service *services.Coordinator
}

func NewUserHandler(service *services.Coordinator) *UserHandler {
	return &UserHandler{service: service}
}

// GetUsers lists users. Unlike tasks there is no default limit.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	q, count, err := parseListQuery(r.URL.Query(), 0)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	if count {
		n, err := h.service.CountUsers(r.Context(), q)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, "OK", n)
		return
	}

	users, err := h.service.ListUsers(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "OK", users)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	in, err := decodeUserInput(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	projection, err := parseSelect(r.URL.Query())
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	user, err := h.service.GetUser(r.Context(), mux.Vars(r)["id"], projection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "OK", user)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	in, err := decodeUserInput(r)
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	user, err := h.service.UpdateUser(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "User deleted successfully", user)
}

func (h *UserHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.service.Notifications(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "OK", notifications)
}

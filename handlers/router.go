package handlers

import (
	"net/http"

	"trello-project/microservices/assignment-service/services"

	"github.com/gorilla/mux"
)

func home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "Welcome to the Task Management API", map[string]string{
		"users": "/api/users",
		"tasks": "/api/tasks",
	})
}

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// NewRouter registers every API route on a gorilla/mux router wrapped in
// CORS and request logging.
func NewRouter(service *services.Coordinator, corsOrigin string) http.Handler {
	taskHandler := NewTaskHandler(service)
	userHandler := NewUserHandler(service)

	r := mux.NewRouter()
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	r.HandleFunc("/api", home).Methods(http.MethodGet)
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/", home).Methods(http.MethodGet)

	api.HandleFunc("/tasks", taskHandler.GetTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)

	api.HandleFunc("/users", userHandler.GetUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", userHandler.CreateUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", userHandler.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", userHandler.UpdateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", userHandler.DeleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/notifications", userHandler.GetNotifications).Methods(http.MethodGet)

	return enableCORS(corsOrigin)(logRequests(r))
}

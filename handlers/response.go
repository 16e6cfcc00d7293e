package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"trello-project/microservices/assignment-service/logging"
	"trello-project/microservices/assignment-service/services"
)

// envelope is the body of every API response.
type envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Message: message, Data: data}); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: Failed to encode response: %v", err)
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, "Bad Request: "+message, nil)
}

// statusFor maps a coordinator failure kind to an HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidationFailed, services.KindReferenceNotFound, services.KindInvalidState, services.KindConflict:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindStoreError, Message: "unexpected error", Err: err}
	}

	status := statusFor(svcErr.Kind)
	switch status {
	case http.StatusBadRequest:
		logging.Logger.Warnf("Event ID: REQUEST_REJECTED, Description: %s %s rejected: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, "Bad Request: "+svcErr.Message, nil)
	case http.StatusNotFound:
		writeJSON(w, status, svcErr.Message, nil)
	default:
		logging.Logger.Errorf("Event ID: REQUEST_FAILED, Description: %s %s failed: %v", r.Method, r.URL.Path, err)
		writeJSON(w, status, "Internal Server Error", nil)
	}
}

package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"trello-project/microservices/assignment-service/services"
)

var errInvalidBody = errors.New("invalid request body")

// flexString accepts a JSON string, number or bool and keeps its text.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = flexString(str)
		return nil
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return fmt.Errorf("expected a scalar, got %s", data)
	}
	*s = flexString(data)
	return nil
}

// flexBool accepts true/false as JSON booleans or strings.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := parseBool(string(s))
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

// flexList accepts a JSON array of ids or a single id.
type flexList []string

func (l *flexList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []flexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, string(item))
		}
		*l = out
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*l = nil
		return nil
	}
	*l = flexList{string(s)}
	return nil
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

type taskBody struct {
	Name             flexString `json:"name"`
	Description      flexString `json:"description"`
	Deadline         flexString `json:"deadline"`
	Completed        flexBool   `json:"completed"`
	AssignedUser     flexString `json:"assignedUser"`
	AssignedUserName flexString `json:"assignedUserName"`
}

type userBody struct {
	Name         flexString `json:"name"`
	Email        flexString `json:"email"`
	PendingTasks flexList   `json:"pendingTasks"`
}

func isForm(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// readForm returns the posted form values for form-encoded requests.
func readForm(r *http.Request) (url.Values, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			return nil, errInvalidBody
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, errInvalidBody
	}
	return r.PostForm, nil
}

// decodeJSON decodes the body into out. An empty body leaves out untouched.
func decodeJSON(r *http.Request, out interface{}) error {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return errInvalidBody
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errInvalidBody
	}
	return nil
}

func decodeTaskInput(r *http.Request) (services.TaskInput, error) {
	if isForm(r) {
		form, err := readForm(r)
		if err != nil {
			return services.TaskInput{}, err
		}
		completed, err := parseBool(form.Get("completed"))
		if err != nil {
			return services.TaskInput{}, errInvalidBody
		}
		return services.TaskInput{
			Name:             form.Get("name"),
			Description:      form.Get("description"),
			Deadline:         form.Get("deadline"),
			Completed:        completed,
			AssignedUser:     form.Get("assignedUser"),
			AssignedUserName: form.Get("assignedUserName"),
		}, nil
	}

	var body taskBody
	if err := decodeJSON(r, &body); err != nil {
		return services.TaskInput{}, err
	}
	return services.TaskInput{
		Name:             string(body.Name),
		Description:      string(body.Description),
		Deadline:         string(body.Deadline),
		Completed:        bool(body.Completed),
		AssignedUser:     string(body.AssignedUser),
		AssignedUserName: string(body.AssignedUserName),
	}, nil
}

func decodeUserInput(r *http.Request) (services.UserInput, error) {
	if isForm(r) {
		form, err := readForm(r)
		if err != nil {
			return services.UserInput{}, err
		}
		pending := append([]string{}, form["pendingTasks"]...)
		pending = append(pending, form["pendingTasks[]"]...)
		return services.UserInput{
			Name:         form.Get("name"),
			Email:        form.Get("email"),
			PendingTasks: pending,
		}, nil
	}

	var body userBody
	if err := decodeJSON(r, &body); err != nil {
		return services.UserInput{}, err
	}
	return services.UserInput{
		Name:         string(body.Name),
		Email:        string(body.Email),
		PendingTasks: []string(body.PendingTasks),
	}, nil
}

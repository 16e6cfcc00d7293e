package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"trello-project/microservices/assignment-service/repositories"

	"go.mongodb.org/mongo-driver/bson"
)

// queryError carries the client-facing text of a malformed query parameter.
type queryError struct {
	message string
}

func (e *queryError) Error() string {
	return e.message
}

func invalidJSONParam(name string) error {
	return &queryError{message: fmt.Sprintf("Invalid JSON in '%s' parameter", name)}
}

// parseJSONParam decodes an extended-JSON query parameter into out. It
// reports whether the parameter was present.
func parseJSONParam(values url.Values, name string, out interface{}) (bool, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return false, nil
	}
	if err := bson.UnmarshalExtJSON([]byte(raw), false, out); err != nil {
		return true, invalidJSONParam(name)
	}
	return true, nil
}

func parseSelect(values url.Values) (bson.M, error) {
	var projection bson.M
	if _, err := parseJSONParam(values, "select", &projection); err != nil {
		return nil, err
	}
	return projection, nil
}

// parseListQuery reads where/sort/select/skip/limit/count. defaultLimit is
// applied when no limit is given; 0 means unlimited.
func parseListQuery(values url.Values, defaultLimit int64) (repositories.ListQuery, bool, error) {
	var q repositories.ListQuery

	if _, err := parseJSONParam(values, "where", &q.Where); err != nil {
		return q, false, err
	}
	if _, err := parseJSONParam(values, "sort", &q.Sort); err != nil {
		return q, false, err
	}
	projection, err := parseSelect(values)
	if err != nil {
		return q, false, err
	}
	q.Select = projection

	if q.Skip, err = parseCount(values, "skip", 0); err != nil {
		return q, false, err
	}
	if q.Limit, err = parseCount(values, "limit", defaultLimit); err != nil {
		return q, false, err
	}

	return q, values.Get("count") == "true", nil
}

func parseCount(values url.Values, name string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, &queryError{message: fmt.Sprintf("Invalid '%s' parameter", name)}
	}
	return n, nil
}

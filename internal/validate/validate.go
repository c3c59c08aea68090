// Package validate rejects malformed todo bodies, pagination queries and path ids
// before they reach the collection.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/Harvey-AU/todo-service/internal/todo"
)

// InvalidQueryMessage prefixes every pagination error.
const InvalidQueryMessage = "Invalid query string"

const todoSchemaURL = "todo.schema.json"

var todoSchema = jsonschema.MustCompileString(todoSchemaURL, fmt.Sprintf(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["id", "text"],
	"properties": {
		"id":        {"type": "integer"},
		"text":      {"type": "string", "minLength": 1, "maxLength": %d},
		"completed": {"type": "boolean"}
	}
}`, todo.MaxTextLength))

// Error is an InvalidInput outcome. Field is empty when the whole input is at fault.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

// TodoBody validates a create/update request body and decodes it.
// An absent completed field decodes to false.
func TodoBody(r io.Reader) (todo.Todo, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return todo.Todo{}, &Error{Message: "failed to read request body"}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return todo.Todo{}, &Error{Message: "request body is required"}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return todo.Todo{}, &Error{Message: fmt.Sprintf("request body is not valid JSON: %v", err)}
	}
	if dec.More() {
		return todo.Todo{}, &Error{Message: "request body must contain a single JSON object"}
	}

	if err := todoSchema.Validate(doc); err != nil {
		return todo.Todo{}, schemaError(err)
	}

	var t todo.Todo
	if err := json.Unmarshal(raw, &t); err != nil {
		// integral but not representable as int64, e.g. 1e30 or 1.0
		return todo.Todo{}, &Error{Field: "id", Message: "must be a 64-bit integer"}
	}
	return t, nil
}

// schemaError reduces a schema failure to its first leaf cause.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &Error{Message: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}

	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	return &Error{Field: field, Message: ve.Message}
}

// Pagination parses the optional offset and limit query parameters.
// A parameter that is present must carry a value: offset >= 0, limit > 0.
func Pagination(query url.Values) (todo.Page, error) {
	var page todo.Page

	if values, ok := query["offset"]; ok {
		offset, err := strconv.Atoi(first(values))
		if err != nil || offset < 0 {
			return todo.Page{}, &Error{Field: "offset", Message: InvalidQueryMessage + ": offset must be a non-negative integer"}
		}
		page.Offset = offset
	}

	if values, ok := query["limit"]; ok {
		limit, err := strconv.Atoi(first(values))
		if err != nil || limit <= 0 {
			return todo.Page{}, &Error{Field: "limit", Message: InvalidQueryMessage + ": limit must be a positive integer"}
		}
		page.Limit = limit
	}

	return page, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// PathID parses the id segment of /todos/{id}. A false result is a not-found outcome.
func PathID(segment string) (int64, bool) {
	if segment == "" || strings.Contains(segment, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(segment, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

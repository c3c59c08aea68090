package validate

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harvey-AU/todo-service/internal/todo"
)

func TestTodoBody_Valid(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected todo.Todo
	}{
		{
			name:     "all_fields",
			body:     `{"id": 1, "text": "New Task", "completed": true}`,
			expected: todo.Todo{ID: 1, Text: "New Task", Completed: true},
		},
		{
			name:     "completed_defaults_to_false",
			body:     `{"id": 2, "text": "New Task"}`,
			expected: todo.Todo{ID: 2, Text: "New Task"},
		},
		{
			name:     "max_length_text",
			body:     `{"id": 3, "text": "` + strings.Repeat("A", todo.MaxTextLength) + `"}`,
			expected: todo.Todo{ID: 3, Text: strings.Repeat("A", todo.MaxTextLength)},
		},
		{
			name:     "unicode_text_counts_characters",
			body:     `{"id": 4, "text": "` + strings.Repeat("é", todo.MaxTextLength) + `"}`,
			expected: todo.Todo{ID: 4, Text: strings.Repeat("é", todo.MaxTextLength)},
		},
		{
			name:     "large_id",
			body:     `{"id": 9007199254740993, "text": "big"}`,
			expected: todo.Todo{ID: 9007199254740993, Text: "big"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TodoBody(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTodoBody_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedField string
	}{
		{name: "missing_text", body: `{"id": 2, "completed": true}`, expectedField: ""},
		{name: "missing_id", body: `{"text": "no id"}`, expectedField: ""},
		{name: "completed_not_boolean", body: `{"id": 4, "text": "Invalid Data Type", "completed": "notBoolean"}`, expectedField: "completed"},
		{name: "completed_null", body: `{"id": 4, "text": "x", "completed": null}`, expectedField: "completed"},
		{name: "text_not_string", body: `{"id": 4, "text": 12}`, expectedField: "text"},
		{name: "empty_text", body: `{"id": 4, "text": ""}`, expectedField: "text"},
		{name: "text_too_long", body: `{"id": 4, "text": "` + strings.Repeat("A", todo.MaxTextLength+1) + `"}`, expectedField: "text"},
		{name: "id_not_integer", body: `{"id": "4", "text": "x"}`, expectedField: "id"},
		{name: "id_fractional", body: `{"id": 4.5, "text": "x"}`, expectedField: "id"},
		{name: "not_an_object", body: `[1, 2]`, expectedField: ""},
		{name: "malformed_json", body: `{"id": 1, "text": `, expectedField: ""},
		{name: "empty_body", body: ``, expectedField: ""},
		{name: "trailing_data", body: `{"id": 1, "text": "a"} {"id": 2}`, expectedField: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TodoBody(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.True(t, IsInvalidInput(err))

			var ve *Error
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.expectedField, ve.Field)
			assert.NotEmpty(t, ve.Error())
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected todo.Page
		wantErr  bool
	}{
		{name: "defaults", query: "", expected: todo.Page{Offset: 0, Limit: 0}},
		{name: "offset_and_limit", query: "offset=2&limit=2", expected: todo.Page{Offset: 2, Limit: 2}},
		{name: "limit_only", query: "limit=1000", expected: todo.Page{Limit: 1000}},
		{name: "offset_only", query: "offset=3", expected: todo.Page{Offset: 3}},
		{name: "zero_offset", query: "offset=0&limit=1", expected: todo.Page{Offset: 0, Limit: 1}},
		{name: "negative_offset", query: "offset=-1&limit=2", wantErr: true},
		{name: "empty_offset", query: "offset&limit=2", wantErr: true},
		{name: "empty_offset_with_equals", query: "offset=&limit=2", wantErr: true},
		{name: "non_numeric_limit", query: "offset=0&limit=abc", wantErr: true},
		{name: "non_numeric_offset", query: "offset=abc", wantErr: true},
		{name: "zero_limit", query: "limit=0", wantErr: true},
		{name: "negative_limit", query: "limit=-5", wantErr: true},
		{name: "empty_limit", query: "limit=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := url.ParseQuery(tt.query)
			require.NoError(t, err)

			page, err := Pagination(query)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidInput(err))
				assert.Contains(t, err.Error(), InvalidQueryMessage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, page)
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		segment string
		id      int64
		ok      bool
	}{
		{segment: "1", id: 1, ok: true},
		{segment: "999", id: 999, ok: true},
		{segment: "-3", id: -3, ok: true},
		{segment: "invalidId", ok: false},
		{segment: "", ok: false},
		{segment: "1.5", ok: false},
		{segment: "1/extra", ok: false},
		{segment: "99999999999999999999", ok: false},
	}

	for _, tt := range tests {
		t.Run("segment_"+tt.segment, func(t *testing.T) {
			id, ok := PathID(tt.segment)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestError_Message(t *testing.T) {
	assert.Equal(t, "text: too long", (&Error{Field: "text", Message: "too long"}).Error())
	assert.Equal(t, "request body is required", (&Error{Message: "request body is required"}).Error())
	assert.False(t, IsInvalidInput(errors.New("other")))
}

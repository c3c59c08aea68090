package benchmarks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/Harvey-AU/todo-service/internal/api"
	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/Harvey-AU/todo-service/internal/testutil"
	"github.com/Harvey-AU/todo-service/internal/todo"
	"github.com/Harvey-AU/todo-service/internal/util"
	"github.com/Harvey-AU/todo-service/internal/validate"
	"github.com/rs/zerolog"
)

func quietLogs(b *testing.B) {
	previous := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.Disabled)
	b.Cleanup(func() { zerolog.SetGlobalLevel(previous) })
}

func newRouter(store todo.Store) http.Handler {
	mux := http.NewServeMux()
	api.NewHandler(store, api.NewGate(auth.DefaultConfig()), api.Options{}).SetupRoutes(mux)
	return api.RequestIDMiddleware(mux)
}

// Benchmark store operations - hot path for every request
func BenchmarkStoreConcurrentAccess(b *testing.B) {
	store := todo.NewMemoryStore()
	ctx := context.Background()

	// Pre-populate store
	for i := 1; i <= 100; i++ {
		_, _ = store.Create(ctx, todo.Todo{ID: int64(i), Text: "seed"})
	}

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			id := int64(i%100 + 1)
			if i%2 == 0 {
				_, _ = store.List(ctx, todo.Page{Offset: int(id), Limit: 10})
			} else {
				_, _ = store.Update(ctx, id, "updated", i%4 == 1)
			}
			i++
		}
	})
}

// Benchmark input validation - hot path for create and update
func BenchmarkValidateTodoBody(b *testing.B) {
	body := `{"id": 42, "text": "Buy milk", "completed": false}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := validate.TodoBody(strings.NewReader(body)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkValidateTodoBodyInvalid(b *testing.B) {
	body := `{"id": 42, "completed": "yes"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validate.TodoBody(strings.NewReader(body))
	}
}

func BenchmarkValidatePagination(b *testing.B) {
	query := url.Values{"offset": {"20"}, "limit": {"10"}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = validate.Pagination(query)
	}
}

// Benchmark the auth gate - runs before every gated operation
func BenchmarkBasicAuthenticate(b *testing.B) {
	authenticator := auth.NewAccountAuthenticator(auth.DefaultConfig())
	req := httptest.NewRequest(http.MethodGet, "/todos", nil)
	req.Header.Set("Authorization", testutil.BasicAuth(testutil.AdminUser, testutil.AdminPassword))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := authenticator.Authenticate(req); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark full request handling through the router
func BenchmarkCreateTodo(b *testing.B) {
	quietLogs(b)
	router := newRouter(todo.NewMemoryStore())
	authHeader := testutil.BasicAuth(testutil.AdminUser, testutil.AdminPassword)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/todos", strings.NewReader(fmt.Sprintf(`{"id": %d, "text": "task"}`, i)))
		req.Header.Set("Authorization", authHeader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkListTodosPage(b *testing.B) {
	quietLogs(b)
	store := todo.NewMemoryStore()
	for i := 1; i <= 1000; i++ {
		_, _ = store.Create(context.Background(), todo.Todo{ID: int64(i), Text: "seed"})
	}
	router := newRouter(store)
	authHeader := testutil.BasicAuth(testutil.AdminUser, testutil.AdminPassword)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/todos?offset=500&limit=50", nil)
		req.Header.Set("Authorization", authHeader)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

// Benchmark error responses - plain text is the default encoder
func BenchmarkErrorResponse(b *testing.B) {
	quietLogs(b)
	req := httptest.NewRequest(http.MethodGet, "/todos?offset=-1", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		api.BadRequest(w, req, "Invalid query string")
	}
}

func BenchmarkDescribeClient(b *testing.B) {
	ua := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = util.DescribeClient(ua)
	}
}

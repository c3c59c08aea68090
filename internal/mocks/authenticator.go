package mocks

import (
	"net/http"

	"github.com/Harvey-AU/todo-service/internal/auth"
	"github.com/stretchr/testify/mock"
)

// MockAuthenticator is a mock implementation of auth.Authenticator
type MockAuthenticator struct {
	mock.Mock
}

// Authenticate mocks the credential check
func (m *MockAuthenticator) Authenticate(r *http.Request) (*auth.Principal, error) {
	args := m.Called(r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Principal), args.Error(1)
}

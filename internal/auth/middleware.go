package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Harvey-AU/todo-service/internal/util"
	"github.com/getsentry/sentry-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Authentication errors
var (
	ErrMissingCredentials = errors.New("missing or invalid Authorization header")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Realm is advertised in the WWW-Authenticate challenge.
const Realm = "todos"

// Authenticator defines the interface for credential checks
type Authenticator interface {
	Authenticate(r *http.Request) (*Principal, error)
}

// Principal is the authenticated caller
type Principal struct {
	Username string
	Method   string // "basic" or "bearer"
}

// PrincipalContextKey is the key used to store the principal in the request context
type PrincipalContextKey string

const (
	PrincipalKey PrincipalContextKey = "principal"
)

// AccountAuthenticator checks requests against the single configured account
type AccountAuthenticator struct {
	username  string
	password  string
	jwtSecret []byte
}

// NewAccountAuthenticator creates an AccountAuthenticator from config.
// Bearer tokens are only accepted when a JWT secret is configured.
func NewAccountAuthenticator(cfg Config) *AccountAuthenticator {
	a := &AccountAuthenticator{
		username: cfg.Username,
		password: cfg.Password,
	}
	if cfg.JWTSecret != "" {
		a.jwtSecret = []byte(cfg.JWTSecret)
	}
	return a
}

// Authenticate validates Basic credentials, or a bearer token when enabled
func (a *AccountAuthenticator) Authenticate(r *http.Request) (*Principal, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, ErrMissingCredentials
	}

	if strings.HasPrefix(authHeader, "Bearer ") && a.jwtSecret != nil {
		return a.authenticateToken(strings.TrimPrefix(authHeader, "Bearer "))
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrMissingCredentials
	}

	userMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userMatch || !passMatch {
		return nil, ErrInvalidCredentials
	}

	return &Principal{Username: username, Method: "basic"}, nil
}

func (a *AccountAuthenticator) authenticateToken(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return a.jwtSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			// Capture invalid signatures - potential security issue
			sentry.CaptureException(err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subtle.ConstantTimeCompare([]byte(subject), []byte(a.username)) != 1 {
		return nil, fmt.Errorf("%w: unexpected token subject", ErrInvalidCredentials)
	}

	return &Principal{Username: subject, Method: "bearer"}, nil
}

// DenyFunc writes the unauthenticated response
type DenyFunc func(w http.ResponseWriter, r *http.Request, message string)

// Gate decides per operation whether a request may proceed
type Gate struct {
	authenticator Authenticator
	required      map[Operation]bool
	deny          DenyFunc
}

// NewGate creates a Gate. A nil deny writes a bare 401.
func NewGate(authenticator Authenticator, required map[Operation]bool, deny DenyFunc) *Gate {
	flags := make(map[Operation]bool, len(required))
	for op, req := range required {
		flags[op] = req
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, r *http.Request, message string) {
			http.Error(w, message, http.StatusUnauthorized)
		}
	}
	return &Gate{authenticator: authenticator, required: flags, deny: deny}
}

// Required reports whether op needs credentials
func (g *Gate) Required(op Operation) bool {
	if op == OpAdmin {
		return true
	}
	return g.required[op]
}

// Require wraps next so that it only runs once op's auth requirement is met.
// Nothing in next (body parsing, path parsing) runs for a rejected request.
func (g *Gate) Require(op Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.Required(op) {
			// Credentials are optional here, but keep the principal for logging if they are valid
			if principal, err := g.authenticator.Authenticate(r); err == nil {
				r = SetPrincipalInContext(r, principal)
			}
			next(w, r)
			return
		}

		principal, err := g.authenticator.Authenticate(r)
		if err != nil {
			log.Warn().
				Err(err).
				Str("operation", string(op)).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("client_ip", util.ClientIP(r)).
				Str("client", util.DescribeClient(r.UserAgent())).
				Msg("Authentication failed")

			message := "Authentication required"
			if errors.Is(err, ErrInvalidCredentials) {
				message = "Invalid credentials"
			}

			w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Basic realm=%q`, Realm))
			g.deny(w, r, message)
			return
		}

		next(w, SetPrincipalInContext(r, principal))
	}
}

// SetPrincipalInContext adds the principal to the request context
func SetPrincipalInContext(r *http.Request, principal *Principal) *http.Request {
	ctx := context.WithValue(r.Context(), PrincipalKey, principal)
	return r.WithContext(ctx)
}

// GetPrincipalFromContext extracts the principal from the request context
func GetPrincipalFromContext(ctx context.Context) (*Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(*Principal)
	return principal, ok
}

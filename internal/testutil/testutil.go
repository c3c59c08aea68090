package testutil

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
)

// Default credentials of the single fixed account
const (
	AdminUser     = "admin"
	AdminPassword = "admin"
)

// BasicAuth returns an Authorization header value for HTTP Basic credentials
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

// Bearer returns an Authorization header value for a bearer token
func Bearer(token string) string {
	return "Bearer " + token
}

// JSONBody marshals v into a request body, failing the test on error
func JSONBody(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	return bytes.NewReader(data)
}

// LoadTestEnv loads .env.test (if found) into the process environment without
// overriding variables that are already set
func LoadTestEnv(t *testing.T) {
	t.Helper()

	envPath := findEnvTestFile()
	if envPath == "" {
		t.Log("Warning: .env.test file not found, using environment variables as-is")
		return
	}

	envMap, err := godotenv.Read(envPath)
	if err != nil {
		t.Logf("Warning: Failed to read %s: %v", envPath, err)
		return
	}

	for key, value := range envMap {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		t.Setenv(key, value)
	}
}

// findEnvTestFile searches for .env.test in current and parent directories
func findEnvTestFile() string {
	dir, _ := os.Getwd()

	// Search up to 5 levels up
	for range 5 {
		envPath := filepath.Join(dir, ".env.test")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached root
		}
		dir = parent
	}

	return ""
}

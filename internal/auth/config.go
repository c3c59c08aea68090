package auth

import (
	"fmt"
)

// Operation names a gated todo operation
type Operation string

const (
	OpCreate Operation = "create"
	OpList   Operation = "list"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	// OpAdmin is always gated regardless of the policy.
	OpAdmin Operation = "admin"
)

// Config holds the single fixed account and the per-operation gate flags
type Config struct {
	Username  string
	Password  string
	JWTSecret string
	Required  map[Operation]bool
}

// DefaultConfig requires credentials for every operation
func DefaultConfig() Config {
	return Config{
		Username: "admin",
		Password: "admin",
		Required: map[Operation]bool{
			OpCreate: true,
			OpList:   true,
			OpUpdate: true,
			OpDelete: true,
		},
	}
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.Username == "" {
		return fmt.Errorf("auth username is required")
	}
	if c.Password == "" {
		return fmt.Errorf("auth password is required")
	}
	return nil
}

package filekeep

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxUserFiles caps the number of records GetUserFiles returns.
const MaxUserFiles = 100

// Account is the identity the execution environment attributes to a caller.
type Account string

// FileRecord is the metadata stored for one registered file.
type FileRecord struct {
	Name      string  `json:"name"`
	URL       string  `json:"url"`
	Timestamp uint64  `json:"timestamp,string"`
	Owner     Account `json:"owner"`
}

// Env carries the ambient values of one invocation: who is calling and the
// environment's notion of "now".
type Env struct {
	Caller    Account
	Timestamp uint64
}

// Tables holds configurable table names for record storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Files string `mapstructure:"files"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Files == "" {
		return errors.New("validate tables: files table name cannot be empty")
	}

	if !IsValidTableName(t.Files) {
		return fmt.Errorf("validate tables: invalid files table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Files)
	}

	return nil
}

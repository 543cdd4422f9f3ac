// Package keybackend provides SecretStore implementations for key retrieval.
package keybackend

import (
	"errors"
	"fmt"

	"github.com/sagarc03/filekeep"
)

// ErrKeyNotFound reports an access key no store entry exists for.
var ErrKeyNotFound = errors.New("access key not found")

// MapSecretStore resolves credentials from an in-memory map.
// Suitable for configuration file-based key storage.
type MapSecretStore struct {
	creds map[string]filekeep.Credential
}

// NewMapSecretStore creates a store from access key to credential.
func NewMapSecretStore(creds map[string]filekeep.Credential) *MapSecretStore {
	return &MapSecretStore{creds: creds}
}

// NewSecretOnlyStore creates a store where every access key acts as itself.
func NewSecretOnlyStore(secrets map[string]string) *MapSecretStore {
	creds := make(map[string]filekeep.Credential, len(secrets))
	for k, v := range secrets {
		creds[k] = filekeep.Credential{SecretKey: v}
	}
	return NewMapSecretStore(creds)
}

// Lookup returns the credential for accessKey. Unknown keys yield an error
// matching both ErrKeyNotFound and filekeep.ErrUnauthorized.
func (s *MapSecretStore) Lookup(accessKey string) (filekeep.Credential, error) {
	cred, found := s.creds[accessKey]
	if !found {
		return filekeep.Credential{}, fmt.Errorf("%w: %w", ErrKeyNotFound, filekeep.ErrUnauthorized)
	}
	return cred, nil
}

var _ filekeep.SecretStore = (*MapSecretStore)(nil)

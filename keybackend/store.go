package keybackend

import (
	"maps"

	"github.com/sagarc03/filekeep"
)

// KeysConfig lists the access keys a server accepts. Keys may be written
// inline in the server config, kept in a separate JSON file, or both.
type KeysConfig struct {
	Inline []KeyPair `mapstructure:"inline"`
	File   string    `mapstructure:"file"`
}

// NewSecretStore builds the SecretStore described by cfg. When an access key
// appears both inline and in the file, the file entry is used.
func NewSecretStore(cfg KeysConfig) (filekeep.SecretStore, error) {
	creds := credentials(cfg.Inline)

	if cfg.File != "" {
		fromFile, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		maps.Copy(creds, fromFile)
	}

	return NewMapSecretStore(creds), nil
}

// credentials indexes pairs by access key, dropping incomplete entries.
func credentials(pairs []KeyPair) map[string]filekeep.Credential {
	creds := make(map[string]filekeep.Credential, len(pairs))
	for _, p := range pairs {
		if p.AccessKey == "" || p.SecretKey == "" {
			continue
		}
		creds[p.AccessKey] = p.credential()
	}
	return creds
}

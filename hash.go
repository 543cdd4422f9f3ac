package filekeep

import (
	"crypto/sha256"
	"encoding/base64"
)

// ContentKey derives the registry key for a file name: the SHA-256 digest of
// the name's bytes, encoded with the standard padded base64 alphabet.
//
// The result depends only on the name, so re-adding the same name always
// targets the same record.
func ContentKey(name string) string {
	sum := sha256.Sum256([]byte(name))
	return base64.StdEncoding.EncodeToString(sum[:])
}

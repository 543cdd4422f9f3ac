// Package filekeep provides a content-addressed file registry with pluggable
// record storage and signed-request caller identification.
//
// A file is registered under a key derived from its name (SHA-256, standard
// base64). The registry stores metadata only: the name, a URL pointing at the
// bytes, the registration time and the owning identity.
//
// # Key Components
//
//   - Registry: the four registry operations (AddFile, GetFile, GetUserFiles, DeleteFile)
//   - RecordStore: ordered key → record mapping (memory, SQLite, PostgreSQL, bbolt)
//   - ContentKey: deterministic key derivation
//   - SignatureVerifier: resolves the calling identity from presigned requests
//
// # Ownership
//
// Only a record's owner may delete it. Adding a file never checks ownership:
// re-adding an existing name replaces the record and its owner.
//
// # Example Usage
//
//	registry, err := filekeep.NewRegistry(memory.NewStore(), filekeep.RegistryConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	env := filekeep.Env{Caller: "alice", Timestamp: clock.Now()}
//	key, err := registry.AddFile(ctx, env, "report.pdf", "https://example.com/report.pdf")
//
//	rec, ok, err := registry.GetFile(ctx, key)
//
// See the http package for the REST API and the database package for
// persistent record stores.
package filekeep
